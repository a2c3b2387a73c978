package models

// Sentinel values used when the profile is synthesized from the narrower
// quote endpoint and a field has no upstream source.
const (
	FieldUnavailable       = "N/A"
	DescriptionUnavailable = "Description unavailable (Source: Quote Endpoint)"
)

// StockProfile is the normalized company profile. Field names follow the
// FMP profile endpoint; the quote fallback maps its narrower payload into
// the same shape.
type StockProfile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Price       float64 `json:"price"`
	MarketCap   float64 `json:"marketCap"`
	Description string  `json:"description"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	CEO         string  `json:"ceo,omitempty"`
	Website     string  `json:"website,omitempty"`
}

// StockQuote is the quote endpoint payload: the profile fallback source,
// also shown directly by the CLI quote command. It names the company
// "name" where profile says "companyName".
type StockQuote struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ChangePercentage float64 `json:"changePercentage"`
	MarketCap        float64 `json:"marketCap"`
	Volume           int64   `json:"volume"`
}

// ProfileFromQuote synthesizes a best-effort profile from quote data,
// marking the fields the quote endpoint cannot supply.
func ProfileFromQuote(q *StockQuote) *StockProfile {
	return &StockProfile{
		Symbol:      q.Symbol,
		CompanyName: q.Name,
		Price:       q.Price,
		MarketCap:   q.MarketCap,
		Description: DescriptionUnavailable,
		Sector:      FieldUnavailable,
		Industry:    FieldUnavailable,
		CEO:         FieldUnavailable,
		Website:     FieldUnavailable,
	}
}

// KeyMetrics merges the ratios-ttm and key-metrics-ttm endpoints into one
// record. Pointer fields distinguish "absent upstream" from zero so the
// overlay merge can tell which endpoint supplied a value.
type KeyMetrics struct {
	Symbol        string   `json:"symbol"`
	PERatio       *float64 `json:"priceToEarningsRatioTTM,omitempty"`
	EPS           *float64 `json:"netIncomePerShareTTM,omitempty"`
	ROE           *float64 `json:"returnOnEquityTTM,omitempty"`
	DebtToEquity  *float64 `json:"debtToEquityRatioTTM,omitempty"`
	DividendYield *float64 `json:"dividendYieldTTM,omitempty"`
}

// Empty reports whether no endpoint supplied any metric.
func (m *KeyMetrics) Empty() bool {
	return m.PERatio == nil && m.EPS == nil && m.ROE == nil &&
		m.DebtToEquity == nil && m.DividendYield == nil
}

// Overlay copies every non-nil field of other onto m, other winning on
// collision. Symbol is overlaid too when set.
func (m *KeyMetrics) Overlay(other *KeyMetrics) {
	if other == nil {
		return
	}
	if other.Symbol != "" {
		m.Symbol = other.Symbol
	}
	if other.PERatio != nil {
		m.PERatio = other.PERatio
	}
	if other.EPS != nil {
		m.EPS = other.EPS
	}
	if other.ROE != nil {
		m.ROE = other.ROE
	}
	if other.DebtToEquity != nil {
		m.DebtToEquity = other.DebtToEquity
	}
	if other.DividendYield != nil {
		m.DividendYield = other.DividendYield
	}
}

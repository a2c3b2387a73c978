package models

// AnalystEstimate is one period of Wall Street consensus estimates from
// the analyst-estimates endpoint.
type AnalystEstimate struct {
	Symbol             string   `json:"symbol"`
	Date               string   `json:"date"`
	RevenueAvg         *float64 `json:"revenueAvg,omitempty"`
	RevenueHigh        *float64 `json:"revenueHigh,omitempty"`
	RevenueLow         *float64 `json:"revenueLow,omitempty"`
	EPSAvg             *float64 `json:"epsAvg,omitempty"`
	EPSHigh            *float64 `json:"epsHigh,omitempty"`
	EPSLow             *float64 `json:"epsLow,omitempty"`
	NumAnalystsRevenue *int     `json:"numAnalystsRevenue,omitempty"`
	NumAnalystsEPS     *int     `json:"numAnalystsEps,omitempty"`
}

func (a *AnalystEstimate) Valid() bool {
	return a.Symbol != "" && a.Date != ""
}

// InstitutionalHolder is one Form 13F holder from the
// institutional-ownership extract-analytics endpoint.
type InstitutionalHolder struct {
	InvestorName        string   `json:"investorName"`
	Symbol              string   `json:"symbol"`
	SecurityName        string   `json:"securityName,omitempty"`
	SharesNumber        *int64   `json:"sharesNumber,omitempty"`
	MarketValue         *float64 `json:"marketValue,omitempty"`
	AvgPricePaid        *float64 `json:"avgPricePaid,omitempty"`
	OwnershipPercent    *float64 `json:"ownershipPercent,omitempty"`
	ChangeInSharesPct   *float64 `json:"changeInSharesNumberPercentage,omitempty"`
	IsNew               *bool    `json:"isNew,omitempty"`
}

func (h *InstitutionalHolder) Valid() bool {
	return h.InvestorName != ""
}

// TranscriptDate is one available earnings call, newest first as returned
// by the earning-call-transcript-dates endpoint.
type TranscriptDate struct {
	Quarter    int    `json:"quarter"`
	FiscalYear int    `json:"fiscalYear"`
	Date       string `json:"date"`
}

// EarningsTranscript is the full text of one earnings call.
type EarningsTranscript struct {
	Symbol  string `json:"symbol"`
	Quarter int    `json:"quarter"`
	Year    int    `json:"year"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// RevenueSegments is one period of revenue segmentation. Data holds
// segment name to revenue; upstream nests this under the period date.
type RevenueSegments struct {
	Date string             `json:"date"`
	Data map[string]float64 `json:"data"`
}

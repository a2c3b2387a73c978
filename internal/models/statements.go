package models

import (
	"encoding/json"
)

// FinancialStatement is one reporting period of an income statement,
// balance sheet, or cash-flow statement. The upstream column set is wide
// and provider-versioned, so only the identifying core is typed; every
// other key lands in Extras and survives re-serialization.
type FinancialStatement struct {
	Date             string `json:"date"`
	Symbol           string `json:"symbol"`
	ReportedCurrency string `json:"reportedCurrency"`
	FillingDate      string `json:"fillingDate,omitempty"`
	Period           string `json:"period"`

	Extras map[string]any `json:"-"`
}

// coreStatementKeys are the typed fields; everything else goes to Extras.
var coreStatementKeys = map[string]struct{}{
	"date":             {},
	"symbol":           {},
	"reportedCurrency": {},
	"fillingDate":      {},
	"period":           {},
}

func (f *FinancialStatement) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	type core FinancialStatement
	var c core
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*f = FinancialStatement(c)
	if f.ReportedCurrency == "" {
		f.ReportedCurrency = "USD"
	}

	for key, val := range raw {
		if _, ok := coreStatementKeys[key]; ok {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			continue
		}
		if f.Extras == nil {
			f.Extras = make(map[string]any)
		}
		f.Extras[key] = v
	}
	return nil
}

func (f FinancialStatement) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extras)+5)
	for k, v := range f.Extras {
		out[k] = v
	}
	out["date"] = f.Date
	out["symbol"] = f.Symbol
	out["reportedCurrency"] = f.ReportedCurrency
	if f.FillingDate != "" {
		out["fillingDate"] = f.FillingDate
	}
	out["period"] = f.Period
	return json.Marshal(out)
}

// Valid reports whether the record carries the identifying core fields.
func (f *FinancialStatement) Valid() bool {
	return f.Date != "" && f.Symbol != "" && f.Period != ""
}

// Extra returns an auxiliary column by its upstream name.
func (f *FinancialStatement) Extra(key string) (any, bool) {
	v, ok := f.Extras[key]
	return v, ok
}

// StatementType selects which statement endpoint to query.
type StatementType string

const (
	IncomeStatement   StatementType = "income-statement"
	BalanceSheet      StatementType = "balance-sheet-statement"
	CashFlowStatement StatementType = "cash-flow-statement"
)

// StatementBundle is the three-way fan-out result. Any subset may be
// empty; the bundle is usable as long as one list has data.
type StatementBundle struct {
	IncomeStatement []FinancialStatement `json:"income_statement"`
	BalanceSheet    []FinancialStatement `json:"balance_sheet"`
	CashFlow        []FinancialStatement `json:"cash_flow"`
}

// HasData reports whether at least one of the three statements came back.
func (b *StatementBundle) HasData() bool {
	return len(b.IncomeStatement) > 0 || len(b.BalanceSheet) > 0 || len(b.CashFlow) > 0
}

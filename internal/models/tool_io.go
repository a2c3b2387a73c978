package models

// Tool argument shapes. The LLM fills these from the declared parameter
// schemas; json tags are the argument names it sees.

type TickerInput struct {
	Ticker string `json:"ticker"`
}

type TranscriptInput struct {
	Ticker  string `json:"ticker"`
	Year    int    `json:"year,omitempty"`
	Quarter int    `json:"quarter,omitempty"`
}

type SearchInput struct {
	Query string `json:"query"`
}

// Tool result shapes. A failed invocation never surfaces as a Go error to
// the orchestration loop; it serializes as {"error": "..."} so the model
// sees the fault inline with any successful results.

type ProfileOutput struct {
	*StockProfile
	Error string `json:"error,omitempty"`
}

type RatiosOutput struct {
	*KeyMetrics
	Error string `json:"error,omitempty"`
}

type NewsOutput struct {
	Articles []MarketNews `json:"articles,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type StatementsOutput struct {
	*StatementBundle
	Error string `json:"error,omitempty"`
}

type EstimatesOutput struct {
	Estimates []AnalystEstimate `json:"estimates,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type HoldersOutput struct {
	Holders []InstitutionalHolder `json:"holders,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type TranscriptOutput struct {
	*EarningsTranscript
	Error string `json:"error,omitempty"`
}

type SegmentsOutput struct {
	Product    []RevenueSegments `json:"product,omitempty"`
	Geographic []RevenueSegments `json:"geographic,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type PressReleasesOutput struct {
	Releases []PressRelease `json:"releases,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type SearchOutput struct {
	*SearchResponse
	Error string `json:"error,omitempty"`
}

package models

// MarketNews is one stock news article from the news/stock endpoint.
type MarketNews struct {
	Title     string `json:"title"`
	Date      string `json:"publishedDate"`
	Site      string `json:"site"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	Sentiment string `json:"sentiment,omitempty"`
	Image     string `json:"image,omitempty"`
}

// Valid reports whether the record carries every required field. Upstream
// payloads are heterogeneous across symbols; invalid items are dropped
// rather than failing the batch.
func (n *MarketNews) Valid() bool {
	return n.Title != "" && n.Date != "" && n.Site != "" && n.Text != "" && n.URL != ""
}

// PressRelease is one official company announcement from the
// news/press-releases endpoint.
type PressRelease struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

func (p *PressRelease) Valid() bool {
	return p.Symbol != "" && p.Date != "" && p.Title != "" && p.Text != ""
}

// SearchResult is one hit from the Tavily search API.
type SearchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score"`
}

// SearchResponse is the Tavily search API response envelope.
type SearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []SearchResult `json:"results"`
}

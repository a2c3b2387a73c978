package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

const fmpBaseURL = "https://financialmodelingprep.com/stable"

// FMPClient handles Financial Modeling Prep stable API operations. It
// carries no mutable cross-call state, so one instance is safe to share
// across concurrent tool invocations.
type FMPClient struct {
	client *resty.Client
	cache  *CacheManager
	retry  *RetryConfig
	apiKey string
}

// NewFMPClient creates a new FMP client. A missing API key is the one
// failure allowed to abort here: no operation can succeed without it.
func NewFMPClient(cfg *config.Config) (*FMPClient, error) {
	return newFMPClient(cfg, fmpBaseURL)
}

func newFMPClient(cfg *config.Config, baseURL string) (*FMPClient, error) {
	if cfg.FMPAPIKey == "" {
		return nil, fmt.Errorf("FMP_API_KEY is not set")
	}

	cacheDir := filepath.Join(cfg.DataCacheDir, "fmp")
	cache := NewCacheManager(cacheDir, 6*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)

	return &FMPClient{
		client: client,
		cache:  cache,
		retry:  DefaultRetryConfig(),
		apiKey: cfg.FMPAPIKey,
	}, nil
}

// getJSON issues one authenticated GET and decodes the JSON body into out.
// The request runs under ctx, so a spent session deadline cancels it.
func (c *FMPClient) getJSON(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	return WithRetry(ctx, c.retry, func() error {
		req := c.client.R().SetContext(ctx).SetQueryParam("apikey", c.apiKey)
		if len(params) > 0 {
			req.SetQueryParams(params)
		}

		resp, err := req.Get(endpoint)
		if err != nil {
			return fmt.Errorf("request %s failed: %w", endpoint, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d at %s: %s", resp.StatusCode(), endpoint, resp.String())
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("parse %s response: %w", endpoint, err)
		}
		return nil
	})
}

// fetch is getJSON with the degrade-to-empty policy: an upstream failure
// is logged and leaves out untouched. One failing call must never abort
// an in-progress multi-call aggregation, so nothing propagates upward.
func (c *FMPClient) fetch(ctx context.Context, endpoint string, params map[string]string, out interface{}) {
	if err := c.getJSON(ctx, endpoint, params, out); err != nil {
		log.Printf("fmp: %s degraded to empty: %v", endpoint, err)
	}
}

// GetCompanyProfile fetches the company profile. If the profile endpoint
// returns no usable record (empty, or restricted for the account tier),
// it falls back to the quote endpoint and synthesizes a best-effort
// profile with sentinel values for the fields quote cannot supply. Nil
// without error means both endpoints were empty.
func (c *FMPClient) GetCompanyProfile(ctx context.Context, symbol string) (*models.StockProfile, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.StockProfile
	if c.cache.Get("fmp", "profile", symbol, &cached) {
		return &cached, nil
	}

	var profiles []models.StockProfile
	c.fetch(ctx, "/profile", map[string]string{"symbol": symbol}, &profiles)
	if len(profiles) > 0 && profiles[0].Symbol != "" && profiles[0].CompanyName != "" {
		c.cache.Set("fmp", "profile", symbol, profiles[0])
		return &profiles[0], nil
	}

	log.Printf("fmp: profile endpoint empty for %s, falling back to quote", symbol)
	quote, err := c.GetQuote(ctx, symbol)
	if err != nil || quote == nil {
		return nil, err
	}

	profile := models.ProfileFromQuote(quote)
	c.cache.Set("fmp", "profile", symbol, profile)
	return profile, nil
}

// GetQuote fetches the lightweight quote record for a ticker.
func (c *FMPClient) GetQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var quotes []models.StockQuote
	c.fetch(ctx, "/quote", map[string]string{"symbol": symbol}, &quotes)
	if len(quotes) == 0 || quotes[0].Symbol == "" {
		return nil, nil
	}
	return &quotes[0], nil
}

// GetKeyMetrics fetches TTM ratios and key metrics concurrently and
// merges them into one record, the key-metrics response winning on field
// collision. Nil without error means both endpoints were empty, which
// callers read as "data unavailable", not as a fault.
func (c *FMPClient) GetKeyMetrics(ctx context.Context, symbol string) (*models.KeyMetrics, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.KeyMetrics
	if c.cache.Get("fmp", "key_metrics", symbol, &cached) {
		return &cached, nil
	}

	var ratios, metrics []models.KeyMetrics
	g := new(errgroup.Group)
	g.Go(func() error {
		c.fetch(ctx, "/ratios-ttm", map[string]string{"symbol": symbol}, &ratios)
		return nil
	})
	g.Go(func() error {
		c.fetch(ctx, "/key-metrics-ttm", map[string]string{"symbol": symbol}, &metrics)
		return nil
	})
	_ = g.Wait() // fetches degrade internally and never error

	merged := &models.KeyMetrics{Symbol: symbol}
	if len(ratios) > 0 {
		merged.Overlay(&ratios[0])
	}
	if len(metrics) > 0 {
		merged.Overlay(&metrics[0])
	}
	if merged.Empty() {
		return nil, nil
	}

	c.cache.Set("fmp", "key_metrics", symbol, merged)
	return merged, nil
}

// GetStockNews fetches recent market news for a ticker. Items that fail
// validation are dropped; upstream payloads are heterogeneous across
// symbols and there is no atomicity requirement across items.
func (c *FMPClient) GetStockNews(ctx context.Context, symbol string, limit int) ([]models.MarketNews, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	if limit <= 0 {
		limit = 5
	}

	params := map[string]string{"symbols": symbol, "limit": strconv.Itoa(limit)}

	var cached []models.MarketNews
	if c.cache.Get("fmp", "stock_news", params, &cached) {
		return cached, nil
	}

	var raw []models.MarketNews
	c.fetch(ctx, "/news/stock", params, &raw)

	news := make([]models.MarketNews, 0, len(raw))
	for _, item := range raw {
		if item.Valid() {
			news = append(news, item)
		}
	}

	if len(news) > 0 {
		c.cache.Set("fmp", "stock_news", params, news)
	}
	return news, nil
}

// GetPressReleases fetches official company announcements for a ticker,
// dropping records that fail validation.
func (c *FMPClient) GetPressReleases(ctx context.Context, symbol string, limit int) ([]models.PressRelease, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	if limit <= 0 {
		limit = 10
	}

	params := map[string]string{"symbols": symbol, "limit": strconv.Itoa(limit)}

	var cached []models.PressRelease
	if c.cache.Get("fmp", "press_releases", params, &cached) {
		return cached, nil
	}

	var raw []models.PressRelease
	c.fetch(ctx, "/news/press-releases", params, &raw)

	releases := make([]models.PressRelease, 0, len(raw))
	for _, item := range raw {
		if item.Valid() {
			releases = append(releases, item)
		}
	}

	if len(releases) > 0 {
		c.cache.Set("fmp", "press_releases", params, releases)
	}
	return releases, nil
}

// GetFinancialStatements fans out to the income-statement, balance-sheet
// and cash-flow endpoints concurrently and returns whichever subset
// succeeded. The operation succeeds if at least one of the three yields
// data; nil without error means all three were empty.
func (c *FMPClient) GetFinancialStatements(ctx context.Context, symbol string, limit int) (*models.StatementBundle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	if limit <= 0 {
		limit = 4
	}

	bundle := &models.StatementBundle{}
	g := new(errgroup.Group)
	g.Go(func() error {
		bundle.IncomeStatement = c.fetchStatements(ctx, symbol, models.IncomeStatement, limit)
		return nil
	})
	g.Go(func() error {
		bundle.BalanceSheet = c.fetchStatements(ctx, symbol, models.BalanceSheet, limit)
		return nil
	})
	g.Go(func() error {
		bundle.CashFlow = c.fetchStatements(ctx, symbol, models.CashFlowStatement, limit)
		return nil
	})
	_ = g.Wait() // fetches degrade internally and never error

	if !bundle.HasData() {
		return nil, nil
	}
	return bundle, nil
}

// fetchStatements pulls one statement type, dropping records that fail
// validation.
func (c *FMPClient) fetchStatements(ctx context.Context, symbol string, statementType models.StatementType, limit int) []models.FinancialStatement {
	params := map[string]string{"symbol": symbol, "limit": strconv.Itoa(limit)}

	var cached []models.FinancialStatement
	if c.cache.Get("fmp", string(statementType), params, &cached) {
		return cached
	}

	var raw []models.FinancialStatement
	c.fetch(ctx, "/"+string(statementType), params, &raw)

	statements := make([]models.FinancialStatement, 0, len(raw))
	for _, stmt := range raw {
		if stmt.Valid() {
			statements = append(statements, stmt)
		}
	}

	if len(statements) > 0 {
		c.cache.Set("fmp", string(statementType), params, statements)
	}
	return statements
}

// GetTranscriptDates lists the available earnings calls for a ticker,
// newest first as returned by the upstream.
func (c *FMPClient) GetTranscriptDates(ctx context.Context, symbol string) ([]models.TranscriptDate, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var dates []models.TranscriptDate
	c.fetch(ctx, "/earning-call-transcript-dates", map[string]string{"symbol": symbol}, &dates)
	return dates, nil
}

// GetEarningsTranscript fetches the full text of one earnings call. When
// year or quarter is zero it resolves the most recent available call
// first. Nil without error means no transcript exists.
func (c *FMPClient) GetEarningsTranscript(ctx context.Context, symbol string, year, quarter int) (*models.EarningsTranscript, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if year == 0 || quarter == 0 {
		dates, err := c.GetTranscriptDates(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return nil, nil
		}
		year = dates[0].FiscalYear
		quarter = dates[0].Quarter
	}

	params := map[string]string{
		"symbol":  symbol,
		"year":    strconv.Itoa(year),
		"quarter": strconv.Itoa(quarter),
	}

	var cached models.EarningsTranscript
	if c.cache.Get("fmp", "transcript", params, &cached) {
		return &cached, nil
	}

	var transcripts []models.EarningsTranscript
	c.fetch(ctx, "/earning-call-transcript", params, &transcripts)
	if len(transcripts) == 0 || transcripts[0].Content == "" {
		return nil, nil
	}

	c.cache.Set("fmp", "transcript", params, transcripts[0])
	return &transcripts[0], nil
}

// GetRevenueSegmentation fetches the product and geographic revenue
// breakdowns concurrently. Either slice may be empty.
func (c *FMPClient) GetRevenueSegmentation(ctx context.Context, symbol string) (product, geographic []models.RevenueSegments, err error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, nil, err
	}
	symbol = NormalizeSymbol(symbol)

	g := new(errgroup.Group)
	g.Go(func() error {
		c.fetch(ctx, "/revenue-product-segmentation", map[string]string{"symbol": symbol}, &product)
		return nil
	})
	g.Go(func() error {
		c.fetch(ctx, "/revenue-geographic-segmentation", map[string]string{"symbol": symbol}, &geographic)
		return nil
	})
	_ = g.Wait() // fetches degrade internally and never error

	return product, geographic, nil
}

// GetAnalystEstimates fetches annual Wall Street consensus estimates,
// dropping records that fail validation.
func (c *FMPClient) GetAnalystEstimates(ctx context.Context, symbol string, limit int) ([]models.AnalystEstimate, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	if limit <= 0 {
		limit = 5
	}

	params := map[string]string{
		"symbol": symbol,
		"period": "annual",
		"limit":  strconv.Itoa(limit),
	}

	var raw []models.AnalystEstimate
	c.fetch(ctx, "/analyst-estimates", params, &raw)

	estimates := make([]models.AnalystEstimate, 0, len(raw))
	for _, item := range raw {
		if item.Valid() {
			estimates = append(estimates, item)
		}
	}
	return estimates, nil
}

// GetInstitutionalHolders fetches the top Form 13F holders, dropping
// records that fail validation.
func (c *FMPClient) GetInstitutionalHolders(ctx context.Context, symbol string, limit int) ([]models.InstitutionalHolder, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	if limit <= 0 {
		limit = 10
	}

	params := map[string]string{
		"symbol": symbol,
		"page":   "0",
		"limit":  strconv.Itoa(limit),
	}

	var raw []models.InstitutionalHolder
	c.fetch(ctx, "/institutional-ownership/extract-analytics/holder", params, &raw)

	holders := make([]models.InstitutionalHolder, 0, len(raw))
	for _, item := range raw {
		if item.Valid() {
			holders = append(holders, item)
		}
	}
	return holders, nil
}

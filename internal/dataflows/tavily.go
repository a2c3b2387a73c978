package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/go-resty/resty/v2"
)

const (
	tavilyBaseURL    = "https://api.tavily.com"
	tavilyTopic      = "general"
	tavilyMaxResults = 5
)

// TavilyClient handles Tavily web search operations. The general topic is
// used over the news topic: it gives broader coverage for small and
// mid-cap tickers that news indexes barely track.
type TavilyClient struct {
	client *resty.Client
	cache  *CacheManager
	retry  *RetryConfig
	apiKey string
}

// NewTavilyClient creates a new Tavily search client.
func NewTavilyClient(cfg *config.Config) (*TavilyClient, error) {
	return newTavilyClient(cfg, tavilyBaseURL)
}

func newTavilyClient(cfg *config.Config, baseURL string) (*TavilyClient, error) {
	if cfg.TavilyAPIKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY is not set")
	}

	cacheDir := filepath.Join(cfg.DataCacheDir, "tavily")
	cache := NewCacheManager(cacheDir, 2*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)

	return &TavilyClient{
		client: client,
		cache:  cache,
		retry:  DefaultRetryConfig(),
		apiKey: cfg.TavilyAPIKey,
	}, nil
}

type tavilySearchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	Topic             string `json:"topic"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// Search runs a web search for the query. Unlike the FMP operations this
// returns upstream failures to the caller; the tool layer turns them into
// structured error values for the model.
func (c *TavilyClient) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	var cached models.SearchResponse
	if c.cache.Get("tavily", "search", query, &cached) {
		return &cached, nil
	}

	body := tavilySearchRequest{
		APIKey:            c.apiKey,
		Query:             query,
		Topic:             tavilyTopic,
		MaxResults:        tavilyMaxResults,
		IncludeRawContent: true,
	}

	var result models.SearchResponse
	err := WithRetry(ctx, c.retry, func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post("/search")
		if err != nil {
			return fmt.Errorf("tavily search failed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("tavily API error %d: %s", resp.StatusCode(), resp.String())
		}
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return fmt.Errorf("parse tavily response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Results) > 0 {
		c.cache.Set("tavily", "search", query, result)
	}
	return &result, nil
}

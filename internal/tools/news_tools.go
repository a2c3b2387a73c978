package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/dataflows"
	"github.com/dyike/EquityGo/internal/models"
)

// NewPressReleasesTool creates a tool that fetches official company press releases
func NewPressReleasesTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        FetchPressReleases,
			Desc:        "Fetches the latest official press releases for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.PressReleasesOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			releases, err := client.GetPressReleases(ctx, input.Ticker, 0)
			if err != nil {
				return nil, err
			}
			if len(releases) == 0 {
				return &models.PressReleasesOutput{Error: "No press releases found."}, nil
			}
			return &models.PressReleasesOutput{Releases: releases}, nil
		},
	)
}

// NewSearchCompanyNewsTool creates a tool that searches the web for company
// news. Queries built from a bare ticker return noise, so the description
// tells the model to spell out the company name.
func NewSearchCompanyNewsTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: SearchCompanyNews,
			Desc: "Searches the web for recent news and analysis about a company. The query MUST include the full company name, not just the ticker symbol",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search query including the full company name, e.g. 'Tutor Perini Corporation TPC latest contract wins earnings news 2025'",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input models.SearchInput) (*models.SearchOutput, error) {
			if input.Query == "" {
				return nil, fmt.Errorf("query parameter is required")
			}
			client, err := dataflows.NewTavilyClient(cfg)
			if err != nil {
				return nil, err
			}
			resp, err := client.Search(ctx, input.Query)
			if err != nil {
				return nil, err
			}
			// Tavily often omits raw content for paywalled or slow pages;
			// scrape those pages directly so the analyst sees more than a
			// one-line snippet.
			scraper := dataflows.NewArticleScraper(cfg)
			scraper.Backfill(ctx, resp.Results)
			return &models.SearchOutput{SearchResponse: resp}, nil
		},
	)
}

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

// Tool names as the model sees them. The dispatch switch in catalog.go is
// keyed on these; adding a tool means adding a constant, a constructor and
// a case there.
const (
	GetCompanyProfile       = "get_company_profile"
	GetFinancialRatios      = "get_financial_ratios"
	GetStockNews            = "get_stock_news"
	GetFinancialStatements  = "get_financial_statements"
	GetAnalystEstimates     = "get_analyst_estimates"
	GetInstitutionalHolders = "get_institutional_holders"
	GetEarningsTranscript   = "get_earnings_transcript"
	GetRevenueSegmentation  = "get_revenue_segmentation"
	FetchPressReleases      = "fetch_press_releases"
	SearchCompanyNews       = "search_company_news"
)

func tickerParam() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"ticker": {
			Type:     "string",
			Desc:     "Stock ticker symbol, e.g. 'AAPL'",
			Required: true,
		},
	}
}

// NewCompanyProfileTool creates a tool that fetches the company profile
func NewCompanyProfileTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetCompanyProfile,
			Desc:        "Fetches the company profile (name, price, market cap, sector, description) for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.ProfileOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			profile, err := client.GetCompanyProfile(ctx, input.Ticker)
			if err != nil {
				return nil, err
			}
			if profile == nil {
				return &models.ProfileOutput{
					Error: fmt.Sprintf("Company profile not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.ProfileOutput{StockProfile: profile}, nil
		},
	)
}

// NewFinancialRatiosTool creates a tool that fetches key financial metrics
func NewFinancialRatiosTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetFinancialRatios,
			Desc:        "Fetches key financial metrics (P/E ratio, EPS, ROE, debt-to-equity, dividend yield) for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.RatiosOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			metrics, err := client.GetKeyMetrics(ctx, input.Ticker)
			if err != nil {
				return nil, err
			}
			if metrics == nil {
				return &models.RatiosOutput{
					Error: fmt.Sprintf("Financial metrics not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.RatiosOutput{KeyMetrics: metrics}, nil
		},
	)
}

// NewStockNewsTool creates a tool that fetches recent news articles
func NewStockNewsTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetStockNews,
			Desc:        "Fetches the latest news articles for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.NewsOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			news, err := client.GetStockNews(ctx, input.Ticker, 0)
			if err != nil {
				return nil, err
			}
			if len(news) == 0 {
				return &models.NewsOutput{Error: "No recent news found."}, nil
			}
			return &models.NewsOutput{Articles: news}, nil
		},
	)
}

// NewFinancialStatementsTool creates a tool that fetches the three core
// financial statements in one call.
func NewFinancialStatementsTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetFinancialStatements,
			Desc:        "Fetches the annual income statement, balance sheet and cash flow statement for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.StatementsOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return &models.StatementsOutput{
					Error: fmt.Sprintf("Failed to fetch financials: %v", err),
				}, nil
			}
			bundle, err := client.GetFinancialStatements(ctx, input.Ticker, 0)
			if err != nil {
				return &models.StatementsOutput{
					Error: fmt.Sprintf("Failed to fetch financials: %v", err),
				}, nil
			}
			if bundle == nil {
				return &models.StatementsOutput{
					Error: fmt.Sprintf("Financial statements not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.StatementsOutput{StatementBundle: bundle}, nil
		},
	)
}

// NewAnalystEstimatesTool creates a tool that fetches forward consensus estimates
func NewAnalystEstimatesTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetAnalystEstimates,
			Desc:        "Fetches forward analyst consensus estimates (revenue and EPS, annual) for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.EstimatesOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			estimates, err := client.GetAnalystEstimates(ctx, input.Ticker, 0)
			if err != nil {
				return nil, err
			}
			if len(estimates) == 0 {
				return &models.EstimatesOutput{
					Error: fmt.Sprintf("Analyst estimates not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.EstimatesOutput{Estimates: estimates}, nil
		},
	)
}

// NewInstitutionalHoldersTool creates a tool that fetches the largest institutional holders
func NewInstitutionalHoldersTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetInstitutionalHolders,
			Desc:        "Fetches the largest institutional holders and their recent position changes for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.HoldersOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			holders, err := client.GetInstitutionalHolders(ctx, input.Ticker, 0)
			if err != nil {
				return nil, err
			}
			if len(holders) == 0 {
				return &models.HoldersOutput{
					Error: fmt.Sprintf("Institutional ownership data not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.HoldersOutput{Holders: holders}, nil
		},
	)
}

// NewEarningsTranscriptTool creates a tool that fetches an earnings call transcript
func NewEarningsTranscriptTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: GetEarningsTranscript,
			Desc: "Fetches an earnings call transcript for a given stock ticker. Defaults to the most recent call when year and quarter are omitted",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ticker": {
					Type:     "string",
					Desc:     "Stock ticker symbol, e.g. 'AAPL'",
					Required: true,
				},
				"year": {
					Type:     "integer",
					Desc:     "Fiscal year of the call, e.g. 2025. Omit for the latest call",
					Required: false,
				},
				"quarter": {
					Type:     "integer",
					Desc:     "Fiscal quarter of the call (1-4). Omit for the latest call",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input models.TranscriptInput) (*models.TranscriptOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			transcript, err := client.GetEarningsTranscript(ctx, input.Ticker, input.Year, input.Quarter)
			if err != nil {
				return nil, err
			}
			if transcript == nil {
				return &models.TranscriptOutput{
					Error: fmt.Sprintf("Earnings call transcript not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.TranscriptOutput{EarningsTranscript: transcript}, nil
		},
	)
}

// NewRevenueSegmentationTool creates a tool that fetches revenue breakdowns
func NewRevenueSegmentationTool(cfg *config.Config) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        GetRevenueSegmentation,
			Desc:        "Fetches revenue broken down by product line and by geography for a given stock ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(tickerParam()),
		},
		func(ctx context.Context, input models.TickerInput) (*models.SegmentsOutput, error) {
			if input.Ticker == "" {
				return nil, fmt.Errorf("ticker parameter is required")
			}
			client, err := dataflows.NewFMPClient(cfg)
			if err != nil {
				return nil, err
			}
			product, geographic, err := client.GetRevenueSegmentation(ctx, input.Ticker)
			if err != nil {
				return nil, err
			}
			if len(product) == 0 && len(geographic) == 0 {
				return &models.SegmentsOutput{
					Error: fmt.Sprintf("Revenue segmentation not found for ticker: %s", input.Ticker),
				}, nil
			}
			return &models.SegmentsOutput{Product: product, Geographic: geographic}, nil
		},
	)
}

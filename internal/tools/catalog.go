package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/config"
	"golang.org/x/sync/errgroup"
)

// Catalog is the fixed set of tools one pipeline may dispatch. Each
// pipeline declares its catalog once; the model only ever sees these
// tools and the resolver only ever runs them. Tool names outside the
// resolver's switch are untrusted model output and come back as
// structured error results, never as Go errors.
type Catalog struct {
	cfg     *config.Config
	tools   []tool.BaseTool
	resolve func(cfg *config.Config, name string) tool.BaseTool
}

// ResearchCatalog holds the fundamental-analysis tools.
func ResearchCatalog(cfg *config.Config) *Catalog {
	return &Catalog{
		cfg: cfg,
		tools: []tool.BaseTool{
			NewCompanyProfileTool(cfg),
			NewFinancialRatiosTool(cfg),
			NewStockNewsTool(cfg),
			NewFinancialStatementsTool(cfg),
			NewAnalystEstimatesTool(cfg),
			NewInstitutionalHoldersTool(cfg),
			NewEarningsTranscriptTool(cfg),
			NewRevenueSegmentationTool(cfg),
		},
		resolve: resolveResearchTool,
	}
}

// NewsCatalog holds the news-gathering tools.
func NewsCatalog(cfg *config.Config) *Catalog {
	return &Catalog{
		cfg: cfg,
		tools: []tool.BaseTool{
			NewPressReleasesTool(cfg),
			NewSearchCompanyNewsTool(cfg),
		},
		resolve: resolveNewsTool,
	}
}

// resolveResearchTool builds a fresh tool instance per invocation, so
// every call owns its own data client.
func resolveResearchTool(cfg *config.Config, name string) tool.BaseTool {
	switch name {
	case GetCompanyProfile:
		return NewCompanyProfileTool(cfg)
	case GetFinancialRatios:
		return NewFinancialRatiosTool(cfg)
	case GetStockNews:
		return NewStockNewsTool(cfg)
	case GetFinancialStatements:
		return NewFinancialStatementsTool(cfg)
	case GetAnalystEstimates:
		return NewAnalystEstimatesTool(cfg)
	case GetInstitutionalHolders:
		return NewInstitutionalHoldersTool(cfg)
	case GetEarningsTranscript:
		return NewEarningsTranscriptTool(cfg)
	case GetRevenueSegmentation:
		return NewRevenueSegmentationTool(cfg)
	default:
		return nil
	}
}

func resolveNewsTool(cfg *config.Config, name string) tool.BaseTool {
	switch name {
	case FetchPressReleases:
		return NewPressReleasesTool(cfg)
	case SearchCompanyNews:
		return NewSearchCompanyNewsTool(cfg)
	default:
		return nil
	}
}

// Infos returns the tool schemas to bind to the chat model, in catalog order.
func (c *Catalog) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(c.tools))
	for _, t := range c.tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Execute runs every tool call from one assistant turn and returns one
// tool message per call, in call order. Independent calls run
// concurrently; Execute does not return until all of them have resolved.
// Failures of any kind become {"error": ...} payloads in the tool
// message content, so the reasoning loop never sees an exception.
func (c *Catalog) Execute(ctx context.Context, calls []schema.ToolCall) []*schema.Message {
	results := make([]*schema.Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = c.run(gctx, call)
			return nil
		})
	}
	_ = g.Wait() // run converts every failure and never errors

	return results
}

func (c *Catalog) run(ctx context.Context, call schema.ToolCall) *schema.Message {
	name := call.Function.Name

	bt := c.resolve(c.cfg, name)
	if bt == nil {
		log.Printf("tool dispatch: model requested unknown tool %q", name)
		return toolErrorMessage(call, fmt.Sprintf("unknown tool: %s", name))
	}
	impl, ok := bt.(tool.InvokableTool)
	if !ok {
		return toolErrorMessage(call, fmt.Sprintf("tool %s is not invokable", name))
	}

	out, err := impl.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		log.Printf("tool %s failed: %v", name, err)
		return toolErrorMessage(call, err.Error())
	}

	return &schema.Message{
		Role:       schema.Tool,
		Content:    out,
		ToolCallID: call.ID,
	}
}

func toolErrorMessage(call schema.ToolCall, errMsg string) *schema.Message {
	payload, _ := json.Marshal(map[string]string{"error": errMsg})
	return &schema.Message{
		Role:       schema.Tool,
		Content:    string(payload),
		ToolCallID: call.ID,
	}
}

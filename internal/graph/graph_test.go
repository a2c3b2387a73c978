package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/consts"
	"github.com/dyike/EquityGo/internal/agents"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/dyike/EquityGo/internal/tools"
	"github.com/stretchr/testify/require"
)

// scriptedModel returns canned assistant turns in order, for driving the
// state machine without a live LLM.
type scriptedModel struct {
	mu        sync.Mutex
	turns     []*schema.Message
	histories [][]*schema.Message
	bound     []*schema.ToolInfo
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]*schema.Message, len(in))
	copy(snapshot, in)
	m.histories = append(m.histories, snapshot)

	if len(m.turns) == 0 {
		return nil, fmt.Errorf("script exhausted after %d turns", len(m.histories))
	}
	next := m.turns[0]
	m.turns = m.turns[1:]
	return next, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not supported")
}

func (m *scriptedModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound = infos
	return m, nil
}

func assistantTurn(content string, calls ...schema.ToolCall) *schema.Message {
	return &schema.Message{
		Role:      schema.Assistant,
		Content:   content,
		ToolCalls: calls,
	}
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func testGraphConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		MaxIterations: 10,
		DataCacheDir:  t.TempDir(),
	}
}

func runResearch(t *testing.T, cfg *config.Config, m *scriptedModel, ticker string) (string, *models.ResearchState) {
	t.Helper()
	ctx := context.Background()

	state := models.NewResearchState(ticker, consts.PipelineResearch, agents.ResearchRequest(ticker), cfg.MaxIterations)
	runnable, err := NewResearchGraph(ctx, cfg, m, func(ctx context.Context) *models.ResearchState { return state })
	require.NoError(t, err)

	out, err := runnable.Invoke(ctx, ticker)
	require.NoError(t, err)
	return out, state
}

func runNews(t *testing.T, cfg *config.Config, m *scriptedModel, ticker string) (string, *models.ResearchState) {
	t.Helper()
	ctx := context.Background()

	state := models.NewResearchState(ticker, consts.PipelineNews, agents.NewsRequest(ticker), cfg.MaxIterations)
	runnable, err := NewNewsGraph(ctx, cfg, m, func(ctx context.Context) *models.ResearchState { return state })
	require.NoError(t, err)

	out, err := runnable.Invoke(ctx, ticker)
	require.NoError(t, err)
	return out, state
}

func TestResearchGraphDirectToWriter(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("I already know everything about this ticker."),
		assistantTurn("# AAPL Report"),
	}}

	out, state := runResearch(t, testGraphConfig(t), m, "AAPL")

	require.Equal(t, "# AAPL Report", out)
	require.Equal(t, "# AAPL Report", state.Report)
	require.Len(t, m.histories, 2, "one reasoning turn, one synthesis turn")

	// system prompt was seeded before the first model call
	first := m.histories[0]
	require.Equal(t, schema.System, first[0].Role)
	require.Contains(t, first[0].Content, "Wall Street Research Assistant")
	require.Equal(t, schema.User, first[1].Role)
	require.Equal(t, "Research AAPL stock.", first[1].Content)

	// no tool results anywhere in the conversation
	for _, msg := range state.Messages {
		require.NotEqual(t, schema.Tool, msg.Role)
	}
}

func TestResearchGraphBindsFullCatalog(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("done"),
		assistantTurn("report"),
	}}

	_, _ = runResearch(t, testGraphConfig(t), m, "AAPL")

	require.Len(t, m.bound, 8)
	require.Equal(t, tools.GetCompanyProfile, m.bound[0].Name)
	require.Equal(t, tools.GetRevenueSegmentation, m.bound[7].Name)
}

func TestResearchGraphToolLoop(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("",
			toolCall("call_1", tools.GetCompanyProfile, `{"ticker":"AAPL"}`),
			toolCall("call_2", "get_moon_phase", `{}`),
		),
		assistantTurn("Data gathering complete."),
		assistantTurn("# Final Report"),
	}}

	out, state := runResearch(t, testGraphConfig(t), m, "AAPL")

	require.Equal(t, "# Final Report", out)
	require.Len(t, m.histories, 3)

	// conversation shape: system, user, assistant+calls, two tool
	// results in call order, assistant, report
	require.Len(t, state.Messages, 7)
	require.Equal(t, schema.System, state.Messages[0].Role)
	require.Equal(t, schema.User, state.Messages[1].Role)
	require.Equal(t, schema.Assistant, state.Messages[2].Role)
	require.Equal(t, schema.Tool, state.Messages[3].Role)
	require.Equal(t, "call_1", state.Messages[3].ToolCallID)
	require.Equal(t, schema.Tool, state.Messages[4].Role)
	require.Equal(t, "call_2", state.Messages[4].ToolCallID)
	require.Contains(t, state.Messages[4].Content, "unknown tool")
	require.Equal(t, schema.Assistant, state.Messages[5].Role)
	require.Equal(t, schema.Assistant, state.Messages[6].Role)

	// tool results were visible to the next reasoning turn
	second := m.histories[1]
	require.Equal(t, "call_1", second[len(second)-2].ToolCallID)
}

func TestResearchGraphIterationCap(t *testing.T) {
	cfg := testGraphConfig(t)
	cfg.MaxIterations = 2

	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("", toolCall("call_1", tools.GetCompanyProfile, `{"ticker":"AAPL"}`)),
		assistantTurn("", toolCall("call_2", tools.GetFinancialRatios, `{"ticker":"AAPL"}`)),
		assistantTurn("# Partial Report"),
	}}

	out, state := runResearch(t, cfg, m, "AAPL")

	require.Equal(t, "# Partial Report", out)
	require.True(t, state.BudgetExhausted)
	// two reasoning turns plus the synthesis turn; the capped third
	// reasoning turn never reached the model
	require.Len(t, m.histories, 3)

	last := state.Messages[len(state.Messages)-2]
	require.Equal(t, schema.Assistant, last.Role)
	require.Equal(t, agents.BudgetExhaustedNote, last.Content)
	require.Empty(t, last.ToolCalls)
}

func TestNewsGraphSinglePassToAnalyst(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("",
			toolCall("call_1", tools.FetchPressReleases, `{"ticker":"TPC"}`),
			toolCall("call_2", tools.SearchCompanyNews, `{"query":"Tutor Perini Corporation TPC news"}`),
		),
		assistantTurn("**Big Backlog**: article text"),
	}}

	out, state := runNews(t, testGraphConfig(t), m, "TPC")

	require.Equal(t, "**Big Backlog**: article text", out)
	require.Equal(t, out, state.Report)
	// gatherer turn and analyst turn only: tool results must not loop
	// back through the gatherer
	require.Len(t, m.histories, 2)

	require.Contains(t, state.Messages[0].Content, "News Research Assistant")
	require.Equal(t, "Gather the latest news for TPC stock.", state.Messages[1].Content)

	// analyst saw the writing instruction as the final user message, but
	// the instruction is not recorded in the conversation
	analystHistory := m.histories[1]
	instruction := analystHistory[len(analystHistory)-1]
	require.Equal(t, schema.User, instruction.Role)
	require.Contains(t, instruction.Content, "Senior Financial News Analyst")
	for _, msg := range state.Messages {
		require.NotContains(t, msg.Content, "Senior Financial News Analyst")
	}
}

func TestNewsGraphDirectToAnalyst(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("Nothing to gather."),
		assistantTurn("quiet week article"),
	}}

	out, state := runNews(t, testGraphConfig(t), m, "TPC")

	require.Equal(t, "quiet week article", out)
	require.Len(t, m.histories, 2)
	for _, msg := range state.Messages {
		require.NotEqual(t, schema.Tool, msg.Role)
	}
}

func TestNewsGraphBindsNewsCatalogOnly(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn("done"),
		assistantTurn("article"),
	}}

	_, _ = runNews(t, testGraphConfig(t), m, "TPC")

	require.Len(t, m.bound, 2)
	names := []string{m.bound[0].Name, m.bound[1].Name}
	require.Contains(t, names, tools.FetchPressReleases)
	require.Contains(t, names, tools.SearchCompanyNews)
	require.False(t, strings.Contains(strings.Join(names, ","), tools.GetCompanyProfile))
}

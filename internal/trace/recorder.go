package trace

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/dataflows"
	"github.com/dyike/EquityGo/internal/tools"
	"github.com/dyike/EquityGo/pkg/utils"
	"github.com/google/uuid"
)

// rawMessage is one conversation message as archived in the JSON trace.
type rawMessage struct {
	Role       string        `json:"role"`
	Timestamp  string        `json:"timestamp"`
	Content    any           `json:"content"`
	ToolCalls  []rawToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type rawToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type metadata struct {
	RunID       string   `json:"run_id"`
	Ticker      string   `json:"ticker"`
	Timestamp   string   `json:"timestamp"`
	ToolsCalled []string `json:"tools_called"`
}

// decodeContent parses tool payloads back into structures so the JSON
// archive nests them instead of embedding escaped strings.
func decodeContent(content string) any {
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content
	}
	return parsed
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// toolCallIndex maps invocation ids to tool names across a message
// sequence, so every tool result can be attributed to the call that
// produced it.
func toolCallIndex(msgs []*schema.Message) map[string]string {
	index := make(map[string]string)
	for _, msg := range msgs {
		for _, tc := range msg.ToolCalls {
			if tc.ID != "" {
				index[tc.ID] = tc.Function.Name
			}
		}
	}
	return index
}

func rawMessages(msgs []*schema.Message, now func() time.Time) []rawMessage {
	raw := make([]rawMessage, 0, len(msgs))
	for _, msg := range msgs {
		entry := rawMessage{
			Role:       string(msg.Role),
			Timestamp:  now().Format(time.RFC3339),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role == schema.Tool {
			entry.Content = decodeContent(msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			args := map[string]any{}
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			entry.ToolCalls = append(entry.ToolCalls, rawToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: args,
			})
		}
		raw = append(raw, entry)
	}
	return raw
}

func toolsCalled(msgs []*schema.Message) []string {
	seen := make(map[string]bool)
	called := []string{}
	for _, msg := range msgs {
		for _, tc := range msg.ToolCalls {
			if tc.Function.Name == "" || seen[tc.Function.Name] {
				continue
			}
			seen[tc.Function.Name] = true
			called = append(called, tc.Function.Name)
		}
	}
	return called
}

// ResearchLog archives one research session twice: a readable Markdown
// log for humans and a raw JSON context file for machines. The Markdown
// side references tool outputs instead of inlining them; the JSON side
// carries everything.
type ResearchLog struct {
	ticker   string
	runID    string
	logDir   string
	baseName string

	now func() time.Time
}

// NewResearchLog prepares the log file pair for one research session.
func NewResearchLog(cfg *config.Config, ticker string) *ResearchLog {
	now := time.Now
	return &ResearchLog{
		ticker:   ticker,
		runID:    uuid.New().String(),
		logDir:   cfg.LogDir,
		baseName: fmt.Sprintf("%s_RESEARCH_%s", ticker, now().Format("20060102_150405")),
		now:      now,
	}
}

func (l *ResearchLog) RunID() string        { return l.runID }
func (l *ResearchLog) MarkdownPath() string { return filepath.Join(l.logDir, l.baseName+".md") }
func (l *ResearchLog) JSONPath() string     { return filepath.Join(l.logDir, l.baseName+".json") }

type researchArchive struct {
	Metadata      metadata              `json:"metadata"`
	RawMessages   []rawMessage          `json:"raw_messages"`
	ExtractedData researchExtractedData `json:"extracted_data"`
}

// researchExtractedData collects tool payloads by category, so consumers
// of the archive can read the data without replaying the conversation.
type researchExtractedData struct {
	Profile             any   `json:"profile"`
	Metrics             any   `json:"metrics"`
	News                []any `json:"news"`
	IncomeStatement     []any `json:"income_statement"`
	BalanceSheet        []any `json:"balance_sheet"`
	CashFlow            []any `json:"cash_flow"`
	AnalystEstimates    []any `json:"analyst_estimates"`
	InstitutionalOwners []any `json:"institutional_holders"`
	EarningsTranscript  any   `json:"earnings_transcript"`
	RevenueSegmentation any   `json:"revenue_segmentation"`
}

func newResearchExtractedData() researchExtractedData {
	return researchExtractedData{
		News:                []any{},
		IncomeStatement:     []any{},
		BalanceSheet:        []any{},
		CashFlow:            []any{},
		AnalystEstimates:    []any{},
		InstitutionalOwners: []any{},
	}
}

func (d *researchExtractedData) extract(toolName string, content any) {
	switch toolName {
	case tools.GetCompanyProfile:
		d.Profile = content
	case tools.GetFinancialRatios:
		d.Metrics = content
	case tools.GetStockNews:
		d.News = listField(content, "articles")
	case tools.GetFinancialStatements:
		if m, ok := content.(map[string]any); ok {
			if v, ok := m["income_statement"].([]any); ok {
				d.IncomeStatement = v
			}
			if v, ok := m["balance_sheet"].([]any); ok {
				d.BalanceSheet = v
			}
			if v, ok := m["cash_flow"].([]any); ok {
				d.CashFlow = v
			}
		}
	case tools.GetAnalystEstimates:
		d.AnalystEstimates = listField(content, "estimates")
	case tools.GetInstitutionalHolders:
		d.InstitutionalOwners = listField(content, "holders")
	case tools.GetEarningsTranscript:
		d.EarningsTranscript = content
	case tools.GetRevenueSegmentation:
		d.RevenueSegmentation = content
	}
}

// listField pulls a list out of a decoded tool payload; error payloads
// and unexpected shapes leave the target empty.
func listField(content any, key string) []any {
	m, ok := content.(map[string]any)
	if !ok {
		return []any{}
	}
	v, ok := m[key].([]any)
	if !ok {
		return []any{}
	}
	return v
}

// Record writes both trace files from the finished session's message
// sequence. Messages arrive in conversation order and are archived
// unmodified.
func (l *ResearchLog) Record(msgs []*schema.Message) error {
	names := toolCallIndex(msgs)

	archive := researchArchive{
		Metadata: metadata{
			RunID:       l.runID,
			Ticker:      l.ticker,
			Timestamp:   l.now().Format(time.RFC3339),
			ToolsCalled: toolsCalled(msgs),
		},
		RawMessages:   rawMessages(msgs, l.now),
		ExtractedData: newResearchExtractedData(),
	}
	for _, msg := range msgs {
		if msg.Role != schema.Tool {
			continue
		}
		if name := names[msg.ToolCallID]; name != "" {
			archive.ExtractedData.extract(name, decodeContent(msg.Content))
		}
	}
	if err := dataflows.SaveDataToFile(archive, l.JSONPath()); err != nil {
		return fmt.Errorf("write json trace: %w", err)
	}

	md := l.renderMarkdown(msgs, names)
	if err := utils.WriteMarkdown(l.logDir, l.baseName+".md", md); err != nil {
		return fmt.Errorf("write markdown trace: %w", err)
	}
	return nil
}

func (l *ResearchLog) renderMarkdown(msgs []*schema.Message, names map[string]string) string {
	jsonName := l.baseName + ".json"

	var b strings.Builder
	fmt.Fprintf(&b, "# 🕵️ Financial Research Log: $%s\n", l.ticker)
	fmt.Fprintf(&b, "*Date: %s*\n", l.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "*Raw Data Context:* [`%s`](./%s)\n\n", jsonName, jsonName)
	b.WriteString("---\n\n")

	for _, msg := range msgs {
		switch {
		case msg.Role == schema.User:
			b.WriteString("## 👤 User Request\n")
			fmt.Fprintf(&b, "> %s\n\n", msg.Content)

		case msg.Role == schema.System:
			fmt.Fprintf(&b, "**System Context:** *%s...*\n\n", truncateRunes(msg.Content, 100))

		case msg.Role == schema.Assistant && len(msg.ToolCalls) > 0:
			b.WriteString("## 🤖 Agent Reasoning & Actions\n")
			if msg.Content != "" {
				fmt.Fprintf(&b, "%s\n\n", msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				fmt.Fprintf(&b, "### 🛠️ Executing Tool: `%s`\n", tc.Function.Name)
				fmt.Fprintf(&b, "```json\n%s\n```\n", formatArgs(tc.Function.Arguments))
			}

		case msg.Role == schema.Assistant:
			b.WriteString("## 📝 Final Output\n")
			fmt.Fprintf(&b, "%s\n\n", msg.Content)

		case msg.Role == schema.Tool:
			name := names[msg.ToolCallID]
			if name == "" {
				name = msg.ToolCallID
			}
			fmt.Fprintf(&b, "### 📬 Tool Output: `%s`\n", name)
			fmt.Fprintf(&b, "> ✅ Data received. Full data: [%s](./%s)\n\n", jsonName, jsonName)
		}
	}
	return b.String()
}

// formatArgs pretty-prints a tool call's argument JSON; malformed
// arguments are written through untouched.
func formatArgs(args string) string {
	var parsed any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return args
	}
	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return args
	}
	return string(pretty)
}

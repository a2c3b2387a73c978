package models

import (
	"github.com/cloudwego/eino/schema"
)

// ResearchState is the graph-local state shared by every node of one
// pipeline run. Messages is append-only: nodes add to the conversation,
// never remove or reorder. The first message is always the user request
// naming the ticker.
type ResearchState struct {
	Messages []*schema.Message `json:"messages"`
	Ticker   string            `json:"ticker"`
	Pipeline string            `json:"pipeline"`

	// Report holds the final synthesized text once the writer node ran.
	Report string `json:"report"`

	MaxIterations    int  `json:"max_iterations"`
	CurrentIteration int  `json:"current_iteration"`
	BudgetExhausted  bool `json:"budget_exhausted"`

	// SystemSeeded tracks whether the pipeline system prompt was
	// prepended on the first reasoning turn.
	SystemSeeded bool `json:"system_seeded"`
}

func NewResearchState(ticker, pipeline, userPrompt string, maxIterations int) *ResearchState {
	return &ResearchState{
		Messages: []*schema.Message{
			schema.UserMessage(userPrompt),
		},
		Ticker:           ticker,
		Pipeline:         pipeline,
		MaxIterations:    maxIterations,
		CurrentIteration: 0,
	}
}

// AppendMessage grows the conversation. Kept as the single mutation point
// so the append-only invariant is easy to audit.
func (s *ResearchState) AppendMessage(msg *schema.Message) {
	s.Messages = append(s.Messages, msg)
}

// LastMessage returns the newest message, or nil for an empty state.
func (s *ResearchState) LastMessage() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

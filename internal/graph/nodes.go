package graph

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/internal/agents"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/dyike/EquityGo/internal/tools"
)

// Both pipelines share the same node shapes: a reasoning node that may
// request tools, a tool node that executes them, and a synthesis node
// that writes the final text. Nodes pass the ticker through as a token;
// the conversation itself lives in the graph-local ResearchState.

func appendMessages(ctx context.Context, msgs ...*schema.Message) error {
	return compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, s *models.ResearchState) error {
		for _, m := range msgs {
			s.AppendMessage(m)
		}
		return nil
	})
}

func snapshotMessages(ctx context.Context) ([]*schema.Message, string, error) {
	var history []*schema.Message
	var ticker string
	err := compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, s *models.ResearchState) error {
		history = make([]*schema.Message, len(s.Messages))
		copy(history, s.Messages)
		ticker = s.Ticker
		return nil
	})
	return history, ticker, err
}

// reasoningNode invokes the tool-bound model over the conversation so
// far. On first entry it prepends the pipeline's system prompt. Once the
// iteration budget is spent it skips the model call and appends a plain
// assistant note instead, so the branch falls through to synthesis and
// the session still ends with a report.
func reasoningNode(toolModel model.BaseChatModel, systemPrompt func(string) string) func(ctx context.Context, ticker string) (string, error) {
	return func(ctx context.Context, ticker string) (string, error) {
		var history []*schema.Message
		exhausted := false
		budget := 0

		err := compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, s *models.ResearchState) error {
			if !s.SystemSeeded {
				s.Messages = append([]*schema.Message{schema.SystemMessage(systemPrompt(s.Ticker))}, s.Messages...)
				s.SystemSeeded = true
			}
			s.CurrentIteration++
			budget = s.MaxIterations
			if s.CurrentIteration > s.MaxIterations {
				s.BudgetExhausted = true
				exhausted = true
				return nil
			}
			history = make([]*schema.Message, len(s.Messages))
			copy(history, s.Messages)
			return nil
		})
		if err != nil {
			return "", err
		}

		if exhausted {
			log.Printf("reasoning budget of %d turns exhausted for %s, moving to synthesis", budget, ticker)
			note := &schema.Message{Role: schema.Assistant, Content: agents.BudgetExhaustedNote}
			if err := appendMessages(ctx, note); err != nil {
				return "", err
			}
			return ticker, nil
		}

		resp, err := toolModel.Generate(ctx, history)
		if err != nil {
			return "", fmt.Errorf("reasoning step: %w", err)
		}
		if err := appendMessages(ctx, resp); err != nil {
			return "", err
		}
		return ticker, nil
	}
}

// toolNode executes every tool call from the latest assistant turn and
// appends one tool result per call, in call order.
func toolNode(catalog *tools.Catalog) func(ctx context.Context, ticker string) (string, error) {
	return func(ctx context.Context, ticker string) (string, error) {
		var calls []schema.ToolCall
		err := compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, s *models.ResearchState) error {
			if last := s.LastMessage(); last != nil {
				calls = last.ToolCalls
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		if len(calls) == 0 {
			return ticker, nil
		}

		results := catalog.Execute(ctx, calls)
		if err := appendMessages(ctx, results...); err != nil {
			return "", err
		}
		return ticker, nil
	}
}

// synthesisNode runs the raw model over the conversation plus a fixed
// writing instruction. The instruction is sent to the model but not
// recorded in state; only the produced text joins the conversation.
func synthesisNode(chatModel model.BaseChatModel, prompt func(string) string) func(ctx context.Context, ticker string) (string, error) {
	return func(ctx context.Context, ticker string) (string, error) {
		history, symbol, err := snapshotMessages(ctx)
		if err != nil {
			return "", err
		}
		history = append(history, schema.UserMessage(prompt(symbol)))

		resp, err := chatModel.Generate(ctx, history)
		if err != nil {
			return "", fmt.Errorf("synthesis step: %w", err)
		}

		err = compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, s *models.ResearchState) error {
			s.AppendMessage(resp)
			s.Report = resp.Content
			return nil
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
}

// shouldContinue routes after each reasoning turn: tool calls in the
// latest assistant message keep the gathering cycle going, anything else
// moves the session to synthesis. This is the only branch in either
// pipeline.
func shouldContinue(toolsNode, synthesisNode string) func(ctx context.Context, ticker string) (string, error) {
	return func(ctx context.Context, ticker string) (string, error) {
		next := synthesisNode
		err := compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, s *models.ResearchState) error {
			last := s.LastMessage()
			if last != nil && last.Role == schema.Assistant && len(last.ToolCalls) > 0 {
				next = toolsNode
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		return next, nil
	}
}

// runStepBudget caps graph supersteps as a backstop for the cyclic
// research graph; the reasoning node enforces the real per-session
// budget itself.
func runStepBudget(maxIterations int) int {
	return 2*maxIterations + 4
}

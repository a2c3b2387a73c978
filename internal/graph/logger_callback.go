package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	ecmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/internal/models"
)

// LoggerCallback streams pipeline progress to the CLI while a session
// runs. Events are display strings; the CLI owns their presentation.
// Close must be the only way Out gets closed: stream callbacks run on
// their own goroutines and may still deliver frames after the graph run
// has returned, so late pushes are dropped instead of hitting a closed
// channel.
type LoggerCallback struct {
	callbacks.HandlerBuilder

	Out chan string

	mu     sync.Mutex
	closed bool
}

func (cb *LoggerCallback) push(s string) {
	if cb.Out == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.closed {
		return
	}
	cb.Out <- s
}

// Close closes Out and silently drops any push that arrives afterwards.
// Safe to call more than once.
func (cb *LoggerCallback) Close() {
	if cb.Out == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.closed {
		return
	}
	cb.closed = true
	close(cb.Out)
}

func (cb *LoggerCallback) pushMsg(ctx context.Context, msg *schema.Message) {
	if msg == nil {
		return
	}

	node := ""
	_ = compose.ProcessState[*models.ResearchState](ctx, func(_ context.Context, state *models.ResearchState) error {
		node = state.Pipeline
		return nil
	})

	if msg.Role == schema.Tool {
		cb.push(fmt.Sprintf("[%s] tool result for call %s", node, msg.ToolCallID))
		return
	}

	if len(msg.ToolCalls) > 0 {
		for _, tc := range msg.ToolCalls {
			if tc.Function.Name == "" {
				continue
			}
			cb.push(fmt.Sprintf("[%s] calling %s", node, tc.Function.Name))
		}
		return
	}

	if msg.Content != "" {
		cb.push(fmt.Sprintf("[%s] %s", node, msg.Content))
	}
}

func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if info != nil && info.Name != "" {
		cb.push(fmt.Sprintf("node %s started", info.Name))
	}
	return ctx
}

func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	switch v := output.(type) {
	case *schema.Message:
		cb.pushMsg(ctx, v)
	case []*schema.Message:
		for _, m := range v {
			cb.pushMsg(ctx, m)
		}
	}
	return ctx
}

func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	name := ""
	if info != nil {
		name = info.Name
	}
	cb.push(fmt.Sprintf("node %s failed: %v", name, err))
	return ctx
}

func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	go func() {
		defer output.Close()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("graph: stream callback recovered: %v", r)
			}
		}()
		for {
			frame, err := output.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return
			}

			switch v := frame.(type) {
			case *schema.Message:
				cb.pushMsg(ctx, v)
			case *ecmodel.CallbackOutput:
				cb.pushMsg(ctx, v.Message)
			case []*schema.Message:
				for _, m := range v {
					cb.pushMsg(ctx, m)
				}
			}
		}
	}()
	return ctx
}

func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}

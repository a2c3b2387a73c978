package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/consts"
	"github.com/dyike/EquityGo/internal/agents"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/dyike/EquityGo/internal/tools"
)

// NewResearchGraph wires the fundamental-research pipeline:
//
//	START -> researcher -> (tool calls?) -> tools -> researcher -> ...
//	                    \-> writer -> END
//
// The researcher gathers data through the research tool catalog until it
// stops requesting tools, then the writer turns the conversation into an
// investment report. The compiled graph takes the ticker and returns the
// report text; the full conversation stays in the shared state.
func NewResearchGraph(ctx context.Context, cfg *config.Config, chatModel model.ToolCallingChatModel, gen compose.GenLocalState[*models.ResearchState]) (compose.Runnable[string, string], error) {
	catalog := tools.ResearchCatalog(cfg)
	infos, err := catalog.Infos(ctx)
	if err != nil {
		return nil, err
	}
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("bind research tools: %w", err)
	}

	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(gen),
	)

	_ = g.AddLambdaNode(consts.Researcher, compose.InvokableLambda(reasoningNode(toolModel, agents.ResearcherSystemPrompt)))
	_ = g.AddLambdaNode(consts.Tools, compose.InvokableLambda(toolNode(catalog)))
	_ = g.AddLambdaNode(consts.Writer, compose.InvokableLambda(synthesisNode(chatModel, agents.WriterPrompt)))

	_ = g.AddEdge(compose.START, consts.Researcher)
	_ = g.AddBranch(consts.Researcher, compose.NewGraphBranch(shouldContinue(consts.Tools, consts.Writer), map[string]bool{
		consts.Tools:  true,
		consts.Writer: true,
	}))
	_ = g.AddEdge(consts.Tools, consts.Researcher)
	_ = g.AddEdge(consts.Writer, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName(consts.ResearchGraphName),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(runStepBudget(cfg.MaxIterations)),
	)
}

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

// NewNewsGraph wires the news pipeline:
//
//	START -> gatherer -> (tool calls?) -> news_tools -> news_analyst -> END
//	                  \-> news_analyst -> END
//
// Unlike the research graph there is no gathering cycle: the gatherer
// fires all its tools in one turn and the tool results go straight to the
// analyst, which writes a single analysis article.
func NewNewsGraph(ctx context.Context, cfg *config.Config, chatModel model.ToolCallingChatModel, gen compose.GenLocalState[*models.ResearchState]) (compose.Runnable[string, string], error) {
	catalog := tools.NewsCatalog(cfg)
	infos, err := catalog.Infos(ctx)
	if err != nil {
		return nil, err
	}
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("bind news tools: %w", err)
	}

	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(gen),
	)

	_ = g.AddLambdaNode(consts.Gatherer, compose.InvokableLambda(reasoningNode(toolModel, agents.GathererSystemPrompt)))
	_ = g.AddLambdaNode(consts.NewsTools, compose.InvokableLambda(toolNode(catalog)))
	_ = g.AddLambdaNode(consts.NewsAnalyst, compose.InvokableLambda(synthesisNode(chatModel, agents.AnalystPrompt)))

	_ = g.AddEdge(compose.START, consts.Gatherer)
	_ = g.AddBranch(consts.Gatherer, compose.NewGraphBranch(shouldContinue(consts.NewsTools, consts.NewsAnalyst), map[string]bool{
		consts.NewsTools:   true,
		consts.NewsAnalyst: true,
	}))
	_ = g.AddEdge(consts.NewsTools, consts.NewsAnalyst)
	_ = g.AddEdge(consts.NewsAnalyst, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName(consts.NewsGraphName),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(6),
	)
}

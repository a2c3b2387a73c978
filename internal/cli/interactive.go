package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dyike/EquityGo/consts"
	"github.com/dyike/EquityGo/internal/dataflows"
)

const (
	actionResearch = "Research report (profile, ratios, news, statements)"
	actionNews     = "News analysis (press releases, web search)"
	actionQuote    = "Quick quote"
	actionHistory  = "Session history"
	actionConfig   = "Show configuration"
	actionQuit     = "Quit"
)

// runInteractive loops over survey prompts until the user quits. The
// config is resolved through the loader on every action, so an edit to
// config.json applies to the next session without restarting.
func runInteractive(loader *configLoader) error {
	printBanner()

	for {
		var action string
		prompt := &survey.Select{
			Message: "What would you like to do?",
			Options: []string{actionResearch, actionNews, actionQuote, actionHistory, actionConfig, actionQuit},
		}
		if err := survey.AskOne(prompt, &action); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		switch action {
		case actionResearch:
			interactiveSession(loader, consts.PipelineResearch)
		case actionNews:
			interactiveSession(loader, consts.PipelineNews)
		case actionQuote:
			ticker, ok := askTicker()
			if ok {
				if err := showQuote(context.Background(), loader.current(), ticker); err != nil {
					printError(err.Error())
				}
			}
		case actionHistory:
			if err := listHistory(context.Background(), loader.current(), 20); err != nil {
				printError(err.Error())
			}
		case actionConfig:
			showConfig(loader.current())
		case actionQuit:
			fmt.Println("Goodbye.")
			return nil
		}
	}
}

func interactiveSession(loader *configLoader, pipeline string) {
	ticker, ok := askTicker()
	if !ok {
		return
	}

	confirmed := false
	confirm := &survey.Confirm{
		Message: fmt.Sprintf("Run the %s pipeline for %s?", pipeline, ticker),
		Default: true,
	}
	if err := survey.AskOne(confirm, &confirmed); err != nil || !confirmed {
		return
	}

	if err := runSession(context.Background(), loader.current(), ticker, pipeline, "", true); err != nil {
		// already rendered by runSession; keep the loop alive
		return
	}
}

// askTicker prompts for a symbol and validates it before any network call.
func askTicker() (string, bool) {
	var ticker string
	prompt := &survey.Input{
		Message: "Ticker symbol:",
		Help:    "A short alphanumeric symbol, e.g. AAPL or BRK.B",
	}
	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return dataflows.ValidateSymbol(s)
	}))
	if err != nil {
		return "", false
	}
	return dataflows.NormalizeSymbol(ticker), true
}

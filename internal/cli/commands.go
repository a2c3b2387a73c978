package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/consts"
	"github.com/dyike/EquityGo/internal/dataflows"
	"github.com/dyike/EquityGo/internal/debug"
	"github.com/dyike/EquityGo/internal/research"
	"github.com/dyike/EquityGo/internal/storage"
	"github.com/dyike/EquityGo/pkg/utils"
)

const version = "EquityGo v1.0.0"

// configLoader resolves the effective configuration at command run time.
// Backed by the file manager, it picks up edits to config.json while the
// interactive loop is running, so the next session uses the new settings
// without restarting the process.
type configLoader struct {
	mgr      *config.Manager
	fallback *config.Config
}

func newConfigLoader(opts ...config.ManagerOption) *configLoader {
	mgr, err := config.NewManager(opts...)
	if err != nil {
		log.Printf("config: file manager unavailable, using environment only: %v", err)
		return &configLoader{fallback: config.DefaultConfig()}
	}
	return &configLoader{mgr: mgr}
}

func (l *configLoader) current() *config.Config {
	if l.mgr == nil {
		return l.fallback
	}
	cfg := l.mgr.Get()
	return &cfg
}

func (l *configLoader) watch(ctx context.Context) {
	if l.mgr == nil {
		return
	}
	err := l.mgr.Watch(ctx, func(config.Config) {
		log.Printf("config reloaded from %s", l.mgr.Path())
	})
	if err != nil {
		log.Printf("config watch unavailable: %v", err)
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	loader := newConfigLoader(
		config.WithConfigDir(os.Getenv("EQUITYGO_CONFIG_DIR")),
		config.WithInitialConfig(config.DefaultConfig()),
	)

	rootCmd := &cobra.Command{
		Use:   "equitygo",
		Short: "EquityGo - AI-Powered Equity Research",
		Long: `EquityGo turns a ticker symbol into a synthesized research report.
A tool-calling LLM gathers company fundamentals and news through the
Financial Modeling Prep API, then writes either a sectioned investment
report or a narrative news analysis.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader.watch(cmd.Context())
			cfg := loader.current()
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create directories: %w", err)
			}
			return debug.NewEinoDebugger(cfg).Initialize(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(loader)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(loader))
	rootCmd.AddCommand(newNewsCmd(loader))
	rootCmd.AddCommand(newQuoteCmd(loader))
	rootCmd.AddCommand(newInteractiveCmd(loader))
	rootCmd.AddCommand(newHistoryCmd(loader))
	rootCmd.AddCommand(newConfigCmd(loader))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newAnalyzeCmd(loader *configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run a full research session for a stock symbol",
		Long: `Run the research pipeline for a given stock ticker symbol and write a
sectioned investment report.
Example: equitygo analyze AAPL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := consts.PipelineResearch
			if news, _ := cmd.Flags().GetBool("news"); news {
				pipeline = consts.PipelineNews
			}
			output, _ := cmd.Flags().GetString("output")
			noSave, _ := cmd.Flags().GetBool("no-save")

			return runSession(cmd.Context(), loader.current(), args[0], pipeline, output, !noSave)
		},
	}

	cmd.Flags().Bool("news", false, "Run the news pipeline instead of the research pipeline")
	cmd.Flags().String("output", "", "Write the report to this path instead of the reports directory")
	cmd.Flags().Bool("no-save", false, "Do not write the report to disk")

	return cmd
}

func newNewsCmd(loader *configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news [SYMBOL]",
		Short: "Run a news-analysis session for a stock symbol",
		Long: `Gather press releases and web search results for a ticker and write one
narrative news-analysis article.
Example: equitygo news TPC`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			noSave, _ := cmd.Flags().GetBool("no-save")

			return runSession(cmd.Context(), loader.current(), args[0], consts.PipelineNews, output, !noSave)
		},
	}

	cmd.Flags().String("output", "", "Write the article to this path instead of the reports directory")
	cmd.Flags().Bool("no-save", false, "Do not write the article to disk")

	return cmd
}

func newQuoteCmd(loader *configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "quote [SYMBOL]",
		Short: "Show the current quote for a stock symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showQuote(cmd.Context(), loader.current(), args[0])
		},
	}
}

func newInteractiveCmd(loader *configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(loader)
		},
	}
}

func newHistoryCmd(loader *configLoader) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past research sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return listHistory(cmd.Context(), loader.current(), limit)
		},
	}
	historyCmd.Flags().Int("limit", 20, "Number of sessions to list")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show [ID]",
		Short: "Show one stored session's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			return showHistory(cmd.Context(), loader.current(), id)
		},
	})

	return historyCmd
}

func newConfigCmd(loader *configLoader) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(loader.current())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(loader.current())
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
			fmt.Println("AI-Powered Equity Research")
		},
	}
}

// runSession drives one pipeline run and renders its outcome.
func runSession(ctx context.Context, cfg *config.Config, ticker, pipeline, output string, save bool) error {
	printStatus(fmt.Sprintf("Starting %s session for %s...", pipeline, dataflows.NormalizeSymbol(ticker)))

	session := research.NewSession(cfg)
	events := make(chan string, 64)
	session.Events = events

	done := make(chan struct{})
	go func() {
		defer close(done)
		for line := range events {
			printActivity(line)
		}
	}()

	// Run closes the events channel when it returns, which ends the
	// printer goroutine above
	result, err := session.Run(ctx, ticker, pipeline)
	<-done

	if err != nil {
		printError(fmt.Sprintf("Session failed: %v", err))
		return err
	}

	printReport(result.Ticker, result.Report)
	printSummary(result)

	if save && result.Report != "" {
		dir, name := reportTarget(cfg, result, output)
		if err := utils.WriteMarkdown(dir, name, result.Report); err != nil {
			printError(fmt.Sprintf("Report not saved: %v", err))
		} else {
			printStatus(fmt.Sprintf("Report saved: %s", filepath.Join(dir, name)))
		}
	}
	return nil
}

func reportTarget(cfg *config.Config, result *research.Result, output string) (dir, name string) {
	if output != "" {
		return filepath.Dir(output), filepath.Base(output)
	}
	name = fmt.Sprintf("%s_%s_%s.md", result.Ticker, result.Pipeline, time.Now().Format("20060102_150405"))
	return cfg.ReportsDir, name
}

func showQuote(ctx context.Context, cfg *config.Config, ticker string) error {
	client, err := dataflows.NewFMPClient(cfg)
	if err != nil {
		return err
	}
	quote, err := client.GetQuote(ctx, ticker)
	if err != nil {
		return err
	}
	if quote == nil {
		printError(fmt.Sprintf("No quote data for %s", dataflows.NormalizeSymbol(ticker)))
		return nil
	}
	printQuote(quote)
	return nil
}

func openHistoryStore(cfg *config.Config) (*storage.Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("history is disabled: EQUITYGO_DATA_DIR is not set")
	}
	return storage.Open(filepath.Join(cfg.DataDir, "equitygo.db"))
}

func listHistory(ctx context.Context, cfg *config.Config, limit int) error {
	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(ctx, limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		printStatus("No sessions recorded yet.")
		return nil
	}
	printSessionList(sessions)
	return nil
}

func showHistory(ctx context.Context, cfg *config.Config, id int64) error {
	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	msgs, err := store.ListMessages(ctx, session.ID)
	if err != nil {
		return err
	}

	printSessionDetail(session, len(msgs))
	if session.Report != "" {
		printReport(session.Ticker, session.Report)
	}
	return nil
}

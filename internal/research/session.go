package research

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/consts"
	"github.com/dyike/EquityGo/internal/agents"
	"github.com/dyike/EquityGo/internal/dataflows"
	"github.com/dyike/EquityGo/internal/graph"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/dyike/EquityGo/internal/storage"
	"github.com/dyike/EquityGo/internal/trace"
)

// Result is what one finished session hands back to the caller: the
// synthesized report plus everything a collaborator needs to audit the run.
type Result struct {
	Ticker    string
	Pipeline  string
	Report    string
	Messages  []*schema.Message
	RunID     string
	TraceMD   string
	TraceJSON string

	Duration        time.Duration
	Iterations      int
	BudgetExhausted bool
}

// sessionLog is the slice of the trace recorder a session drives: both
// pipeline logs archive a finished message sequence into a file pair.
type sessionLog interface {
	RunID() string
	MarkdownPath() string
	JSONPath() string
	Record(msgs []*schema.Message) error
}

// Session runs one ticker end to end through a pipeline graph.
type Session struct {
	cfg *config.Config

	// ChatModel overrides the configured provider when set. Tests script
	// the model through this.
	ChatModel model.ToolCallingChatModel

	// Events receives human-readable progress lines while the graph runs.
	// Run closes the channel when it returns; late frames from stream
	// callbacks are dropped after that.
	Events chan string
}

func NewSession(cfg *config.Config) *Session {
	return &Session{cfg: cfg}
}

// Run drives the selected pipeline for one ticker and returns the
// synthesized report. The whole run lives under the configured session
// deadline; the per-turn iteration cap is enforced inside the graph.
func (s *Session) Run(ctx context.Context, ticker, pipeline string) (*Result, error) {
	var events *graph.LoggerCallback
	if s.Events != nil {
		events = &graph.LoggerCallback{Out: s.Events}
		defer events.Close()
	}

	if err := dataflows.ValidateSymbol(ticker); err != nil {
		return nil, err
	}
	ticker = dataflows.NormalizeSymbol(ticker)

	if err := s.validate(pipeline); err != nil {
		return nil, err
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	chatModel := s.ChatModel
	if chatModel == nil {
		var err error
		chatModel, err = agents.NewChatModel(ctx, s.cfg)
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SessionTimeout)
	defer cancel()

	var state *models.ResearchState
	var runnable compose.Runnable[string, string]
	var recorder sessionLog
	var prompt string
	var err error

	switch pipeline {
	case consts.PipelineNews:
		prompt = agents.NewsRequest(ticker)
		recorder = trace.NewNewsLog(s.cfg, ticker)
		runnable, err = graph.NewNewsGraph(ctx, s.cfg, chatModel, func(ctx context.Context) *models.ResearchState {
			state = models.NewResearchState(ticker, pipeline, prompt, s.cfg.MaxIterations)
			return state
		})
	case consts.PipelineResearch:
		prompt = agents.ResearchRequest(ticker)
		recorder = trace.NewResearchLog(s.cfg, ticker)
		runnable, err = graph.NewResearchGraph(ctx, s.cfg, chatModel, func(ctx context.Context) *models.ResearchState {
			state = models.NewResearchState(ticker, pipeline, prompt, s.cfg.MaxIterations)
			return state
		})
	default:
		return nil, fmt.Errorf("unknown pipeline %q (want %s or %s)", pipeline, consts.PipelineResearch, consts.PipelineNews)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s graph: %w", pipeline, err)
	}

	store, sessionID := s.openStore(ctx, recorder.RunID(), ticker, pipeline, prompt)
	defer store.Close()

	start := time.Now()
	report, runErr := s.invoke(ctx, runnable, ticker, events)
	duration := time.Since(start)

	result := &Result{
		Ticker:    ticker,
		Pipeline:  pipeline,
		Report:    report,
		RunID:     recorder.RunID(),
		TraceMD:   recorder.MarkdownPath(),
		TraceJSON: recorder.JSONPath(),
		Duration:  duration,
	}
	if state != nil {
		result.Messages = state.Messages
		result.Iterations = state.CurrentIteration
		result.BudgetExhausted = state.BudgetExhausted
	}

	// record whatever the run produced, even on failure: a partial
	// conversation is still worth auditing
	if len(result.Messages) > 0 {
		if err := recorder.Record(result.Messages); err != nil {
			log.Printf("session %s: trace recording failed: %v", result.RunID, err)
		}
	}
	// persistence runs on its own context: the session deadline may
	// already be spent when a run times out
	persistCtx, persistCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer persistCancel()
	s.persist(persistCtx, store, sessionID, result, runErr)

	if runErr != nil {
		return result, fmt.Errorf("%s session for %s: %w", pipeline, ticker, runErr)
	}
	return result, nil
}

// validate checks the credentials this pipeline needs before any network
// call is made. A missing credential is the one condition that aborts
// startup.
func (s *Session) validate(pipeline string) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if s.cfg.FMPAPIKey == "" {
		return fmt.Errorf("FMP_API_KEY is not set")
	}
	if s.ChatModel == nil && s.cfg.LLMAPIKey() == "" {
		return fmt.Errorf("no API key set for llm provider %q", s.cfg.LLMProvider)
	}
	if pipeline == consts.PipelineNews && s.cfg.TavilyAPIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is not set (required by the news pipeline)")
	}
	return nil
}

// invoke runs the compiled graph with panic recovery; a panicking node
// surfaces as an error, not a crashed process.
func (s *Session) invoke(ctx context.Context, runnable compose.Runnable[string, string], ticker string, events *graph.LoggerCallback) (report string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panicked: %v", r)
		}
	}()

	opts := []compose.Option{}
	if events != nil {
		opts = append(opts, compose.WithCallbacks(events))
	}
	return runnable.Invoke(ctx, ticker, opts...)
}

// openStore opens the history store when a data dir is configured. An
// unusable store degrades to no persistence; it never fails the session.
func (s *Session) openStore(ctx context.Context, runID, ticker, pipeline, prompt string) (*storage.Store, int64) {
	if strings.TrimSpace(s.cfg.DataDir) == "" {
		return nil, 0
	}
	store, err := storage.Open(filepath.Join(s.cfg.DataDir, "equitygo.db"))
	if err != nil {
		log.Printf("session %s: history store unavailable: %v", runID, err)
		return nil, 0
	}
	sessionID, err := store.CreateSession(ctx, runID, ticker, pipeline, prompt)
	if err != nil {
		log.Printf("session %s: history row not created: %v", runID, err)
		_ = store.Close()
		return nil, 0
	}
	return store, sessionID
}

func (s *Session) persist(ctx context.Context, store *storage.Store, sessionID int64, result *Result, runErr error) {
	if store == nil {
		return
	}
	status := storage.StatusDone
	if runErr != nil {
		status = storage.StatusError
	}
	if len(result.Messages) > 0 {
		if err := store.SaveMessages(ctx, sessionID, result.Messages); err != nil {
			log.Printf("session %s: messages not persisted: %v", result.RunID, err)
		}
	}
	if err := store.FinishSession(ctx, sessionID, status, result.Report); err != nil {
		log.Printf("session %s: history row not finalized: %v", result.RunID, err)
	}
}

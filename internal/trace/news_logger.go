package trace

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/dataflows"
	"github.com/dyike/EquityGo/internal/tools"
	"github.com/dyike/EquityGo/pkg/utils"
	"github.com/google/uuid"
)

// NewsLog archives one news session: raw tool payloads and the analyzed
// article go to JSON, the article alone goes to Markdown.
type NewsLog struct {
	ticker   string
	runID    string
	logDir   string
	baseName string

	now func() time.Time
}

func NewNewsLog(cfg *config.Config, ticker string) *NewsLog {
	now := time.Now
	return &NewsLog{
		ticker:   ticker,
		runID:    uuid.New().String(),
		logDir:   cfg.LogDir,
		baseName: fmt.Sprintf("NEWS_%s_%s", ticker, now().Format("20060102_150405")),
		now:      now,
	}
}

func (l *NewsLog) RunID() string        { return l.runID }
func (l *NewsLog) MarkdownPath() string { return filepath.Join(l.logDir, l.baseName+".md") }
func (l *NewsLog) JSONPath() string     { return filepath.Join(l.logDir, l.baseName+".json") }

type newsArchive struct {
	Metadata         metadata `json:"metadata"`
	RawNews          rawNews  `json:"raw_news"`
	AnalyzedArticles any      `json:"analyzed_articles"`
}

type rawNews struct {
	PressReleases any `json:"press_releases"`
	SearchResults any `json:"search_results"`
}

// Record writes both trace files from the finished session's message
// sequence.
func (l *NewsLog) Record(msgs []*schema.Message) error {
	names := toolCallIndex(msgs)

	archive := newsArchive{
		Metadata: metadata{
			RunID:       l.runID,
			Ticker:      l.ticker,
			Timestamp:   l.now().Format(time.RFC3339),
			ToolsCalled: toolsCalled(msgs),
		},
		RawNews: rawNews{
			PressReleases: []any{},
			SearchResults: []any{},
		},
	}

	article := ""
	for _, msg := range msgs {
		switch {
		case msg.Role == schema.Tool:
			content := decodeContent(msg.Content)
			switch names[msg.ToolCallID] {
			case tools.FetchPressReleases:
				archive.RawNews.PressReleases = content
			case tools.SearchCompanyNews:
				archive.RawNews.SearchResults = content
			}
		case msg.Role == schema.Assistant && len(msg.ToolCalls) == 0 && msg.Content != "":
			article = msg.Content
		}
	}
	if article != "" {
		archive.AnalyzedArticles = article
	}

	if err := dataflows.SaveDataToFile(archive, l.JSONPath()); err != nil {
		return fmt.Errorf("write json trace: %w", err)
	}
	if article == "" {
		return nil
	}

	md := fmt.Sprintf("# News Analysis: %s\n*Generated: %s*\n\n%s\n",
		l.ticker, l.now().Format("2006-01-02 15:04:05"), article)
	if err := utils.WriteMarkdown(l.logDir, l.baseName+".md", md); err != nil {
		return fmt.Errorf("write markdown trace: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/dyike/EquityGo/pkg/sqlite"
)

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Store keeps a durable record of past research sessions and their full
// conversations, so runs stay browsable after the trace files scroll by.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    ticker TEXT NOT NULL,
    pipeline TEXT NOT NULL,
    prompt TEXT,
    report TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    tool_calls TEXT,
    tool_call_id TEXT,
    tool_name TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq);
`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// CreateSession inserts the row for a starting run and returns its id.
func (s *Store) CreateSession(ctx context.Context, runID, ticker, pipeline, prompt string) (int64, error) {
	if strings.TrimSpace(runID) == "" {
		return 0, fmt.Errorf("run id is required")
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (run_id, ticker, pipeline, prompt, status)
VALUES (?, ?, ?, ?, ?)
`, runID, ticker, pipeline, prompt, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// FinishSession records the run's outcome and final report.
func (s *Store) FinishSession(ctx context.Context, sessionID int64, status, report string) error {
	if status == "" {
		status = StatusDone
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE sessions
SET status = ?, report = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, status, report, sessionID)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// SaveMessages persists one finished conversation in arrival order. Tool
// results keep both the call id and the resolved tool name, so a stored
// session can attribute every result without replaying the conversation.
func (s *Store) SaveMessages(ctx context.Context, sessionID int64, msgs []*schema.Message) error {
	names := make(map[string]string)
	for _, msg := range msgs {
		for _, tc := range msg.ToolCalls {
			if tc.ID != "" {
				names[tc.ID] = tc.Function.Name
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO messages (session_id, seq, role, content, tool_calls, tool_call_id, tool_name)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range msgs {
		var toolCalls string
		if len(msg.ToolCalls) > 0 {
			data, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("marshal tool calls: %w", err)
			}
			toolCalls = string(data)
		}
		toolName := ""
		if msg.Role == schema.Tool {
			toolName = names[msg.ToolCallID]
		}
		if _, err := stmt.ExecContext(ctx, sessionID, i+1, string(msg.Role), msg.Content, toolCalls, msg.ToolCallID, toolName); err != nil {
			return fmt.Errorf("insert message %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// ListSessions returns the most recent runs, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_id, ticker, pipeline, prompt, report, status, created_at
FROM sessions
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *rec)
	}
	return sessions, rows.Err()
}

// GetSession returns one stored run by row id.
func (s *Store) GetSession(ctx context.Context, id int64) (*models.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, run_id, ticker, pipeline, prompt, report, status, created_at
FROM sessions
WHERE id = ?
`, id)
	rec, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d not found", id)
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.RunID, &rec.Ticker, &rec.Pipeline, &rec.Prompt, &rec.Report, &rec.Status, &createdAt); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseStoredTime(createdAt)
	return &rec, nil
}

// ListMessages returns one session's conversation in stored order.
func (s *Store) ListMessages(ctx context.Context, sessionID int64) ([]models.MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, role, content, COALESCE(tool_calls, ''), COALESCE(tool_call_id, ''), COALESCE(tool_name, ''), created_at
FROM messages
WHERE session_id = ?
ORDER BY seq
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.MessageRecord
	for rows.Next() {
		var rec models.MessageRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Role, &rec.Content, &rec.ToolCalls, &rec.ToolCallID, &rec.ToolName, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = parseStoredTime(createdAt)
		msgs = append(msgs, rec)
	}
	return msgs, rows.Err()
}

func parseStoredTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package models

import (
	"time"
)

// ToolResp describes one tool call surfaced to the CLI activity log.
type ToolResp struct {
	ID   string         `json:"id,omitempty"`
	Type string         `json:"type,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolChunkResp carries streamed tool-call argument fragments.
type ToolChunkResp struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
	Args string `json:"args,omitempty"`
}

// ChatResp is one stream event emitted by the graph callback handler.
type ChatResp struct {
	RunID          string          `json:"run_id,omitempty"`
	Node           string          `json:"node,omitempty"`
	ID             string          `json:"id,omitempty"`
	Role           string          `json:"role,omitempty"`
	Content        string          `json:"content,omitempty"`
	FinishReason   string          `json:"finish_reason,omitempty"`
	ToolCallID     string          `json:"tool_call_id,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolCalls      []ToolResp      `json:"tool_calls,omitempty"`
	ToolCallChunks []ToolChunkResp `json:"tool_call_chunks,omitempty"`
}

// SessionRecord is one pipeline run persisted in the history store.
type SessionRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Ticker    string    `json:"ticker"`
	Pipeline  string    `json:"pipeline"`
	Prompt    string    `json:"prompt"`
	Report    string    `json:"report"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRecord is one conversation message persisted in the history
// store. ToolCallID and ToolName keep the invocation back-reference so a
// stored trace can attribute every tool result.
type MessageRecord struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCalls  string    `json:"tool_calls,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

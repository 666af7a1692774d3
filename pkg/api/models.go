package api

import "time"

// Result is the envelope every JSON endpoint responds with. Code 0 means
// success; any other code carries a human-readable reason in Message.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type PageData[T any] struct {
	List  []T   `json:"list"`
	Total int64 `json:"total"`
}

type SessionSummary struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	ChatCount int64     `json:"chatCount"`
}

type ChatMessage struct {
	CreatedAt time.Time `json:"createdAt"`
	ChatType  int8      `json:"chatType"`
	Content   string    `json:"content"`
	AudioID   *string   `json:"audioId,omitempty"`
}

// UserMessage is the reduced shape returned by the recent-user queries, which
// only select content and the audio reference.
type UserMessage struct {
	Content string  `json:"content"`
	AudioID *string `json:"audioId,omitempty"`
}

type ReportedChat struct {
	MacAddress  string         `json:"macAddress"`
	AgentID     string         `json:"agentId"`
	SessionID   string         `json:"sessionId"`
	ChatType    int8           `json:"chatType"`
	Content     string         `json:"content"`
	AudioBase64 string         `json:"audioBase64,omitempty"`
	ReportTime  int64          `json:"reportTime,omitempty"` // unix seconds; zero means now
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type MacAddressReplace struct {
	MacAddress    string `json:"macAddress"`
	NewMacAddress string `json:"newMacAddress"`
}

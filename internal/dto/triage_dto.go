package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	SessionId string `json:"session_id,omitempty"`
	Message   string `json:"message" validate:"required,max=4000"`
}

// ExtractedInfo mirrors the structured state collected so far, returned on
// every turn so the client can render a live intake summary.
type ExtractedInfo struct {
	Fields    map[string]string `json:"fields"`
	RedFlags  bool              `json:"red_flags"`
	Timestamp time.Time         `json:"timestamp"`
}

type ChatResponse struct {
	SessionId     string        `json:"session_id"`
	Reply         string        `json:"reply"`
	Finished      bool          `json:"finished"`
	Stage         string        `json:"stage"`
	Progress      string        `json:"progress"`
	ExtractedInfo ExtractedInfo `json:"extracted_info"`
}

type ChatHistoryMessage struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	SessionId string               `json:"session_id"`
	Stage     string               `json:"stage"`
	Completed bool                 `json:"completed"`
	Messages  []ChatHistoryMessage `json:"messages"`
}

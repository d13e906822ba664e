package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id              uuid.UUID
	TriageSessionId uuid.UUID
	Role            string // "user" | "assistant"
	Content         string
	Stage           string // conversation stage when the message was recorded
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	DeletedAt       *time.Time
	IsDeleted       bool
}

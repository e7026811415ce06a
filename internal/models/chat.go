package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat session lifecycle: sessions start "active", may be marked "completed"
// by the user, and become "finalized" once a goal has been extracted.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusFinalized = "finalized"
)

type ChatSession struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     *string    `json:"title"`
	Status    string     `json:"status"`
	GoalID    *uuid.UUID `json:"goal_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"` // "user" | "assistant" | "system"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is the list-view shape: the session plus a message count
// and a short preview of the latest message.
type SessionSummary struct {
	ChatSession
	MessageCount int     `json:"message_count"`
	LastMessage  *string `json:"last_message"`
}

type SessionDetail struct {
	ChatSession
	Messages []ChatMessage `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	UserMessage      ChatMessage `json:"user_message"`
	AssistantMessage ChatMessage `json:"assistant_message"`
}

type FinalizeResponse struct {
	Session ChatSession `json:"session"`
	Goal    GoalDetail  `json:"goal"`
}

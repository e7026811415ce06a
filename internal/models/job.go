package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"` // "coaching-evaluation" | "insight-generation"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	PayloadJSON  json.RawMessage `json:"payload"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TaskCompletedEvent notifies connected clients that a task status changed
// and the dashboard should refresh.
type TaskCompletedEvent struct {
	TaskID        uuid.UUID `json:"task_id"`
	GoalID        uuid.UUID `json:"goal_id"`
	GoalProgress  int       `json:"goal_progress"`
	CurrentStreak int       `json:"current_streak"`
}

type EvaluationReadyEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	Kind      string    `json:"kind"`
	Score     float64   `json:"score"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

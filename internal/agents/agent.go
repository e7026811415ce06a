package agents

import (
	"context"

	"github.com/google/uuid"
)

// Request is the common input passed to every coaching agent.
type Request struct {
	UserID  uuid.UUID              `json:"user_id"`
	Type    string                 `json:"request_type"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// Response carries an agent's structured output. NextAgent, when set,
// asks the coordinator to chain into another agent with the merged data.
type Response struct {
	Agent     string                 `json:"agent"`
	Data      map[string]interface{} `json:"data"`
	NextAgent string                 `json:"next_agent,omitempty"`
}

// Agent is a single specialized coach. Each agent owns an editable system
// prompt (seeded into system_prompts under PromptKey) and produces
// structured JSON.
type Agent interface {
	Name() string
	Description() string
	PromptKey() string
	DefaultPrompt() string
	Process(ctx context.Context, req *Request) (*Response, error)
}

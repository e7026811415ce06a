package agents

import (
	"context"
	"fmt"

	"milesync-backend/internal/services"
)

const executionPrompt = `You are the Execution agent of a goal-coaching system. Given the user's
current goals and recent progress, pick what they should work on today and
keep them focused.

Return ONLY a valid JSON object:
{"today_tasks": ["string"], "focus_tip": "string", "check_in_question": "string"}

Keep today_tasks to at most 3 items so the day stays achievable.`

// ExecutionAgent selects today's work and keeps the user on track.
type ExecutionAgent struct {
	gemini *services.GeminiService
}

func NewExecutionAgent(gemini *services.GeminiService) *ExecutionAgent {
	return &ExecutionAgent{gemini: gemini}
}

func (a *ExecutionAgent) Name() string { return "execution" }

func (a *ExecutionAgent) Description() string {
	return "Picks today's tasks and keeps the user focused on them"
}

func (a *ExecutionAgent) PromptKey() string     { return "execution_system_prompt" }
func (a *ExecutionAgent) DefaultPrompt() string { return executionPrompt }

func (a *ExecutionAgent) Process(ctx context.Context, req *Request) (*Response, error) {
	system := a.gemini.ResolvePrompt(ctx, a.PromptKey(), executionPrompt)

	var out struct {
		TodayTasks      []string `json:"today_tasks"`
		FocusTip        string   `json:"focus_tip"`
		CheckInQuestion string   `json:"check_in_question"`
	}

	userPrompt := fmt.Sprintf("User update: %s\nProgress context: %v", req.Message, req.Data)
	if err := a.gemini.GenerateJSON(ctx, req.UserID, system, userPrompt, &out); err != nil {
		return &Response{
			Agent: a.Name(),
			Data: map[string]interface{}{
				"today_tasks":       []string{"Pick your highest-priority open task and spend 25 focused minutes on it."},
				"focus_tip":         "One task at a time. Finish before you switch.",
				"check_in_question": "What is the one thing that would make today feel like progress?",
			},
		}, nil
	}

	return &Response{
		Agent: a.Name(),
		Data: map[string]interface{}{
			"today_tasks":       out.TodayTasks,
			"focus_tip":         out.FocusTip,
			"check_in_question": out.CheckInQuestion,
		},
	}, nil
}

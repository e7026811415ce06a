package agents

import (
	"context"
	"fmt"

	"milesync-backend/internal/services"
)

const planningPrompt = `You are the Planning agent of a goal-coaching system. Given a clarified
goal, break it into a realistic sequence of milestones with a clear first
action the user can take today.

Return ONLY a valid JSON object:
{"plan_summary": "string",
 "milestones": [{"title": "string", "description": "string", "weeks": 2}],
 "first_action": "string"}

Aim for 3 to 6 milestones ordered from first to last.`

// PlanningAgent turns a clarified goal into a milestone plan.
type PlanningAgent struct {
	gemini *services.GeminiService
}

func NewPlanningAgent(gemini *services.GeminiService) *PlanningAgent {
	return &PlanningAgent{gemini: gemini}
}

func (a *PlanningAgent) Name() string { return "planning" }

func (a *PlanningAgent) Description() string {
	return "Breaks a clarified goal into ordered milestones and a first action"
}

func (a *PlanningAgent) PromptKey() string     { return "planning_system_prompt" }
func (a *PlanningAgent) DefaultPrompt() string { return planningPrompt }

func (a *PlanningAgent) Process(ctx context.Context, req *Request) (*Response, error) {
	system := a.gemini.ResolvePrompt(ctx, a.PromptKey(), planningPrompt)

	var out struct {
		PlanSummary string `json:"plan_summary"`
		Milestones  []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Weeks       int    `json:"weeks"`
		} `json:"milestones"`
		FirstAction string `json:"first_action"`
	}

	userPrompt := fmt.Sprintf("Goal: %s\nIntake context: %v", req.Message, req.Data)
	if err := a.gemini.GenerateJSON(ctx, req.UserID, system, userPrompt, &out); err != nil {
		return &Response{
			Agent: a.Name(),
			Data: map[string]interface{}{
				"plan_summary": "Start small: pick one concrete step you can finish this week, then build from there.",
				"first_action": "Write down the single smallest step toward this goal and schedule it.",
			},
		}, nil
	}

	milestones := make([]map[string]interface{}, 0, len(out.Milestones))
	for _, m := range out.Milestones {
		milestones = append(milestones, map[string]interface{}{
			"title":       m.Title,
			"description": m.Description,
			"weeks":       m.Weeks,
		})
	}

	return &Response{
		Agent: a.Name(),
		Data: map[string]interface{}{
			"plan_summary": out.PlanSummary,
			"milestones":   milestones,
			"first_action": out.FirstAction,
		},
	}, nil
}

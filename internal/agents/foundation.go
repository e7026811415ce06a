package agents

import (
	"context"
	"fmt"

	"milesync-backend/internal/services"
)

const foundationPrompt = `You are the Foundation agent of a goal-coaching system. Your job is the
intake step: clarify what the user actually wants, why it matters, and what
stands in the way.

Return ONLY a valid JSON object:
{"clarified_goal": "string", "motivation": "string", "obstacles": ["string"],
 "readiness_score": 0.0, "followup_questions": ["string"], "needs_plan": true}

readiness_score is 0.0-1.0. Set needs_plan true when the goal is clear
enough to break into milestones.`

// FoundationAgent handles goal intake and clarification.
type FoundationAgent struct {
	gemini *services.GeminiService
}

func NewFoundationAgent(gemini *services.GeminiService) *FoundationAgent {
	return &FoundationAgent{gemini: gemini}
}

func (a *FoundationAgent) Name() string { return "foundation" }

func (a *FoundationAgent) Description() string {
	return "Clarifies new goals: what, why, and what stands in the way"
}

func (a *FoundationAgent) PromptKey() string     { return "foundation_system_prompt" }
func (a *FoundationAgent) DefaultPrompt() string { return foundationPrompt }

func (a *FoundationAgent) Process(ctx context.Context, req *Request) (*Response, error) {
	system := a.gemini.ResolvePrompt(ctx, a.PromptKey(), foundationPrompt)

	var out struct {
		ClarifiedGoal     string   `json:"clarified_goal"`
		Motivation        string   `json:"motivation"`
		Obstacles         []string `json:"obstacles"`
		ReadinessScore    float64  `json:"readiness_score"`
		FollowupQuestions []string `json:"followup_questions"`
		NeedsPlan         bool     `json:"needs_plan"`
	}

	userPrompt := fmt.Sprintf("User message: %s\nContext: %v", req.Message, req.Data)
	if err := a.gemini.GenerateJSON(ctx, req.UserID, system, userPrompt, &out); err != nil {
		// Degrade to a generic intake response rather than failing the request.
		return &Response{
			Agent: a.Name(),
			Data: map[string]interface{}{
				"clarified_goal": req.Message,
				"followup_questions": []string{
					"What would success look like for you?",
					"When would you like to achieve this by?",
				},
				"readiness_score": 0.3,
			},
		}, nil
	}

	resp := &Response{
		Agent: a.Name(),
		Data: map[string]interface{}{
			"clarified_goal":     out.ClarifiedGoal,
			"motivation":         out.Motivation,
			"obstacles":          out.Obstacles,
			"readiness_score":    out.ReadinessScore,
			"followup_questions": out.FollowupQuestions,
		},
	}
	if out.NeedsPlan {
		resp.NextAgent = "planning"
	}
	return resp, nil
}

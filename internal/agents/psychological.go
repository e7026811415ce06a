package agents

import (
	"context"
	"fmt"
	"strings"

	"milesync-backend/internal/services"
)

const psychologicalPrompt = `You are the Psychological agent of a goal-coaching system. The user is
discouraged, anxious, or stuck. Respond with warmth: acknowledge the
feeling, reframe the setback, and offer one concrete motivation technique.

Return ONLY a valid JSON object:
{"encouragement": "string", "reframe": "string",
 "motivation_technique": "string", "burnout_risk": "LOW"}

burnout_risk must be exactly one of LOW, MEDIUM, HIGH. Never dismiss the
user's feelings and never give medical advice.`

// PsychologicalAgent handles motivation dips and emotional setbacks.
type PsychologicalAgent struct {
	gemini *services.GeminiService
}

func NewPsychologicalAgent(gemini *services.GeminiService) *PsychologicalAgent {
	return &PsychologicalAgent{gemini: gemini}
}

func (a *PsychologicalAgent) Name() string { return "psychological" }

func (a *PsychologicalAgent) Description() string {
	return "Supports the user through motivation dips and emotional setbacks"
}

func (a *PsychologicalAgent) PromptKey() string     { return "psychological_system_prompt" }
func (a *PsychologicalAgent) DefaultPrompt() string { return psychologicalPrompt }

func (a *PsychologicalAgent) Process(ctx context.Context, req *Request) (*Response, error) {
	system := a.gemini.ResolvePrompt(ctx, a.PromptKey(), psychologicalPrompt)

	var out struct {
		Encouragement       string `json:"encouragement"`
		Reframe             string `json:"reframe"`
		MotivationTechnique string `json:"motivation_technique"`
		BurnoutRisk         string `json:"burnout_risk"`
	}

	userPrompt := fmt.Sprintf("User message: %s\nContext: %v", req.Message, req.Data)
	if err := a.gemini.GenerateJSON(ctx, req.UserID, system, userPrompt, &out); err != nil {
		return &Response{
			Agent: a.Name(),
			Data: map[string]interface{}{
				"encouragement":        "Rough patches are part of every meaningful goal. Showing up to reflect on it already counts.",
				"reframe":              "A missed day is data, not a verdict. What made it hard tells you what to adjust.",
				"motivation_technique": "Shrink the next step until it takes under five minutes, then do just that.",
				"burnout_risk":         "LOW",
			},
		}, nil
	}

	risk := strings.ToUpper(strings.TrimSpace(out.BurnoutRisk))
	switch risk {
	case "LOW", "MEDIUM", "HIGH":
	default:
		risk = "LOW"
	}

	return &Response{
		Agent: a.Name(),
		Data: map[string]interface{}{
			"encouragement":        out.Encouragement,
			"reframe":              out.Reframe,
			"motivation_technique": out.MotivationTechnique,
			"burnout_risk":         risk,
		},
	}, nil
}

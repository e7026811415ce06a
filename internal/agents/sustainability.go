package agents

import (
	"context"
	"fmt"
	"strings"

	"milesync-backend/internal/services"
)

const sustainabilityPrompt = `You are the Sustainability agent of a goal-coaching system. Your job is
long-term consistency: turn recurring work into habit loops and watch for
signs of burnout.

Return ONLY a valid JSON object:
{"habit_loops": [{"cue": "string", "routine": "string", "reward": "string"}],
 "consistency_tips": ["string"],
 "burnout_risk": "LOW"}

burnout_risk must be exactly one of LOW, MEDIUM, HIGH.`

// SustainabilityAgent builds habit loops and flags burnout risk.
type SustainabilityAgent struct {
	gemini *services.GeminiService
}

func NewSustainabilityAgent(gemini *services.GeminiService) *SustainabilityAgent {
	return &SustainabilityAgent{gemini: gemini}
}

func (a *SustainabilityAgent) Name() string { return "sustainability" }

func (a *SustainabilityAgent) Description() string {
	return "Builds habit loops for recurring work and watches for burnout"
}

func (a *SustainabilityAgent) PromptKey() string     { return "sustainability_system_prompt" }
func (a *SustainabilityAgent) DefaultPrompt() string { return sustainabilityPrompt }

func (a *SustainabilityAgent) Process(ctx context.Context, req *Request) (*Response, error) {
	system := a.gemini.ResolvePrompt(ctx, a.PromptKey(), sustainabilityPrompt)

	var out struct {
		HabitLoops []struct {
			Cue     string `json:"cue"`
			Routine string `json:"routine"`
			Reward  string `json:"reward"`
		} `json:"habit_loops"`
		ConsistencyTips []string `json:"consistency_tips"`
		BurnoutRisk     string   `json:"burnout_risk"`
	}

	userPrompt := fmt.Sprintf("User message: %s\nContext: %v", req.Message, req.Data)
	if err := a.gemini.GenerateJSON(ctx, req.UserID, system, userPrompt, &out); err != nil {
		return &Response{
			Agent: a.Name(),
			Data: map[string]interface{}{
				"consistency_tips": []string{
					"Attach your goal work to an existing daily routine.",
					"Make the first step so small it feels trivial to start.",
				},
				"burnout_risk": "LOW",
			},
		}, nil
	}

	risk := strings.ToUpper(strings.TrimSpace(out.BurnoutRisk))
	switch risk {
	case "LOW", "MEDIUM", "HIGH":
	default:
		risk = "LOW"
	}

	loops := make([]map[string]interface{}, 0, len(out.HabitLoops))
	for _, l := range out.HabitLoops {
		loops = append(loops, map[string]interface{}{
			"cue":     l.Cue,
			"routine": l.Routine,
			"reward":  l.Reward,
		})
	}

	resp := &Response{
		Agent: a.Name(),
		Data: map[string]interface{}{
			"habit_loops":      loops,
			"consistency_tips": out.ConsistencyTips,
			"burnout_risk":     risk,
		},
	}
	if risk == "MEDIUM" || risk == "HIGH" {
		resp.NextAgent = "psychological"
	}
	return resp, nil
}

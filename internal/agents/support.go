package agents

import (
	"context"
	"fmt"

	"milesync-backend/internal/services"
)

const supportPrompt = `You are the Support agent of a goal-coaching system. When the user needs
resources, point them at concrete materials and communities relevant to
their goal.

Return ONLY a valid JSON object:
{"resources": [{"title": "string", "kind": "article|book|course|tool", "why": "string"}],
 "communities": ["string"],
 "note": "string"}

Prefer well-known, durable resources over obscure links.`

// SupportAgent surfaces learning resources and communities.
type SupportAgent struct {
	gemini *services.GeminiService
}

func NewSupportAgent(gemini *services.GeminiService) *SupportAgent {
	return &SupportAgent{gemini: gemini}
}

func (a *SupportAgent) Name() string { return "support" }

func (a *SupportAgent) Description() string {
	return "Recommends resources and communities relevant to the user's goal"
}

func (a *SupportAgent) PromptKey() string     { return "support_system_prompt" }
func (a *SupportAgent) DefaultPrompt() string { return supportPrompt }

func (a *SupportAgent) Process(ctx context.Context, req *Request) (*Response, error) {
	system := a.gemini.ResolvePrompt(ctx, a.PromptKey(), supportPrompt)

	var out struct {
		Resources []struct {
			Title string `json:"title"`
			Kind  string `json:"kind"`
			Why   string `json:"why"`
		} `json:"resources"`
		Communities []string `json:"communities"`
		Note        string   `json:"note"`
	}

	userPrompt := fmt.Sprintf("User request: %s\nContext: %v", req.Message, req.Data)
	if err := a.gemini.GenerateJSON(ctx, req.UserID, system, userPrompt, &out); err != nil {
		return &Response{
			Agent: a.Name(),
			Data: map[string]interface{}{
				"note": "Resource suggestions are unavailable right now. Try searching for beginner guides and active communities around your goal topic.",
			},
		}, nil
	}

	resources := make([]map[string]interface{}, 0, len(out.Resources))
	for _, r := range out.Resources {
		resources = append(resources, map[string]interface{}{
			"title": r.Title,
			"kind":  r.Kind,
			"why":   r.Why,
		})
	}

	return &Response{
		Agent: a.Name(),
		Data: map[string]interface{}{
			"resources":   resources,
			"communities": out.Communities,
			"note":        out.Note,
		},
	}, nil
}

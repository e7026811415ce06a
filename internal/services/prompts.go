package services

import (
	"context"
	"fmt"

	"milesync-backend/internal/repository"
)

// SeedSystemPrompts inserts the built-in prompt templates into the
// system_prompts table so operators can tune them without a deploy.
// Existing rows are never overwritten. Extra entries (e.g. the coaching
// agent prompts) are seeded alongside the core set.
func SeedSystemPrompts(ctx context.Context, repo *repository.PromptRepo, extra map[string]string) error {
	core := []struct {
		key, description, content string
	}{
		{"coach_system_prompt", "System prompt for the goal-coaching chat", defaultCoachPrompt},
		{"goal_extraction_template", "Instruction for structured roadmap extraction", defaultExtractionPrompt},
		{"coaching_eval_template", "LLM-as-judge template for coaching quality", defaultCoachingEvalPrompt},
		{"frustration_eval_template", "LLM-as-judge template for frustration detection", defaultFrustrationEvalPrompt},
	}

	for _, p := range core {
		if err := repo.Seed(ctx, p.key, p.description, p.content); err != nil {
			return fmt.Errorf("failed to seed prompt %s: %w", p.key, err)
		}
	}

	for key, content := range extra {
		if err := repo.Seed(ctx, key, "Coaching agent prompt", content); err != nil {
			return fmt.Errorf("failed to seed prompt %s: %w", key, err)
		}
	}

	return nil
}

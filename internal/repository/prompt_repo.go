package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type PromptRepo struct {
	pool *pgxpool.Pool
}

func NewPromptRepo(pool *pgxpool.Pool) *PromptRepo {
	return &PromptRepo{pool: pool}
}

func (r *PromptRepo) Get(ctx context.Context, key string) (*models.SystemPrompt, error) {
	p := &models.SystemPrompt{}
	err := r.pool.QueryRow(ctx,
		"SELECT key, description, content, updated_at FROM system_prompts WHERE key = $1",
		key,
	).Scan(&p.Key, &p.Description, &p.Content, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Seed inserts a prompt only when the key is absent so operator edits
// survive restarts.
func (r *PromptRepo) Seed(ctx context.Context, key, description, content string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO system_prompts (key, description, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, key, description, content)
	return err
}

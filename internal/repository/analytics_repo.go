package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

func (r *AnalyticsRepo) CreateEvaluation(ctx context.Context, e *models.AIEvaluation) error {
	e.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO ai_evaluations (id, user_id, session_id, kind, score, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		e.ID, e.UserID, e.SessionID, e.Kind, e.Score, e.Reason,
	).Scan(&e.CreatedAt)
}

func (r *AnalyticsRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.AIEvaluation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, session_id, kind, score, reason, created_at
		FROM ai_evaluations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evals := make([]models.AIEvaluation, 0)
	for rows.Next() {
		var e models.AIEvaluation
		if scanErr := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &e.Kind, &e.Score, &e.Reason, &e.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		evals = append(evals, e)
	}

	return evals, rows.Err()
}

func (r *AnalyticsRepo) GetPerformanceSummary(ctx context.Context, userID uuid.UUID) (*models.PerformanceSummary, error) {
	s := &models.PerformanceSummary{}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(score) FILTER (WHERE kind = 'coaching_quality'), 0),
			COALESCE(AVG(score) FILTER (WHERE kind = 'frustration'), 0),
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE)
		FROM ai_evaluations
		WHERE user_id = $1
	`, userID).Scan(&s.TotalEvaluations, &s.AvgCoachingScore, &s.AvgFrustrationScore, &s.EvaluationsToday)
	if err != nil {
		return nil, err
	}
	return s, nil
}

package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) EnsureProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO user_profiles (user_id) VALUES ($1) ON CONFLICT DO NOTHING", userID)
	return err
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, learning_style, motivation_type, personality_type, best_time_of_day,
			preferred_task_size, goals_completed, tasks_completed, longest_streak,
			stress_level, motivation_level, confidence_level, traits_json, created_at, updated_at
		FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(
		&p.UserID, &p.LearningStyle, &p.MotivationType, &p.PersonalityType, &p.BestTimeOfDay,
		&p.PreferredTaskSize, &p.GoalsCompleted, &p.TasksCompleted, &p.LongestStreak,
		&p.StressLevel, &p.MotivationLevel, &p.ConfidenceLevel, &p.TraitsJSON,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MergeTraits deep-merges new trait keys into the stored traits blob.
func (r *ProfileRepo) MergeTraits(ctx context.Context, userID uuid.UUID, traits json.RawMessage) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET traits_json = COALESCE(traits_json, '{}'::jsonb) || $2::jsonb, updated_at = NOW()
		WHERE user_id = $1
	`, userID, traits)
	return err
}

func (r *ProfileRepo) IncrementTasksCompleted(ctx context.Context, userID uuid.UUID, delta int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET tasks_completed = GREATEST(tasks_completed + $2, 0), updated_at = NOW()
		WHERE user_id = $1
	`, userID, delta)
	return err
}

func (r *ProfileRepo) IncrementGoalsCompleted(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET goals_completed = goals_completed + 1, updated_at = NOW()
		WHERE user_id = $1
	`, userID)
	return err
}

// RecordStreak stores the streak only when it beats the previous best.
func (r *ProfileRepo) RecordStreak(ctx context.Context, userID uuid.UUID, streak int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET longest_streak = GREATEST(longest_streak, $2), updated_at = NOW()
		WHERE user_id = $1
	`, userID, streak)
	return err
}

func (r *ProfileRepo) CreateHabitLoop(ctx context.Context, h *models.HabitLoop) error {
	h.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO habit_loops (id, user_id, goal_id, cue, routine, reward)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		h.ID, h.UserID, h.GoalID, h.Cue, h.Routine, h.Reward,
	).Scan(&h.CreatedAt)
}

func (r *ProfileRepo) ListHabitLoops(ctx context.Context, userID uuid.UUID) ([]models.HabitLoop, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, goal_id, cue, routine, reward, created_at
		FROM habit_loops
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loops := make([]models.HabitLoop, 0)
	for rows.Next() {
		var h models.HabitLoop
		if scanErr := rows.Scan(&h.ID, &h.UserID, &h.GoalID, &h.Cue, &h.Routine, &h.Reward, &h.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		loops = append(loops, h)
	}

	return loops, rows.Err()
}

func (r *ProfileRepo) CreateInsight(ctx context.Context, in *models.UserInsight) error {
	in.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO user_insights (id, user_id, goal_id, kind, content_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		in.ID, in.UserID, in.GoalID, in.Kind, in.ContentJSON,
	).Scan(&in.CreatedAt)
}

func (r *ProfileRepo) ListInsights(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserInsight, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, goal_id, kind, content_json, created_at
		FROM user_insights
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	insights := make([]models.UserInsight, 0)
	for rows.Next() {
		var in models.UserInsight
		if scanErr := rows.Scan(&in.ID, &in.UserID, &in.GoalID, &in.Kind, &in.ContentJSON, &in.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		insights = append(insights, in)
	}

	return insights, rows.Err()
}

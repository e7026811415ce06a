package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// IncrementDay bumps the completed-task counter for a calendar day.
func (r *ProgressRepo) IncrementDay(ctx context.Context, userID uuid.UUID, day time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_progress (user_id, day, tasks_completed)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE
		SET tasks_completed = daily_progress.tasks_completed + 1
	`, userID, day)
	return err
}

// DecrementDay lowers the counter when a completion is undone, never
// below zero.
func (r *ProgressRepo) DecrementDay(ctx context.Context, userID uuid.UUID, day time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE daily_progress
		SET tasks_completed = GREATEST(tasks_completed - 1, 0)
		WHERE user_id = $1 AND day = $2
	`, userID, day)
	return err
}

// ListCompletionDays returns the distinct days with at least one completed
// task, newest first. Streak arithmetic happens in the service layer.
func (r *ProgressRepo) ListCompletionDays(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day FROM daily_progress
		WHERE user_id = $1 AND tasks_completed > 0
		ORDER BY day DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]time.Time, 0)
	for rows.Next() {
		var day time.Time
		if scanErr := rows.Scan(&day); scanErr != nil {
			return nil, scanErr
		}
		days = append(days, day)
	}

	return days, rows.Err()
}

// GetTaskTotals counts tasks across all of the user's goals.
func (r *ProgressRepo) GetTaskTotals(ctx context.Context, userID uuid.UUID) (total int, completed int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE t.status = 'completed')
		FROM tasks t
		JOIN goals g ON g.id = t.goal_id
		WHERE g.user_id = $1
	`, userID).Scan(&total, &completed)
	return
}

func (r *ProgressRepo) CountActiveGoals(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM goals WHERE user_id = $1 AND status = 'active'",
		userID).Scan(&count)
	return count, err
}

// ListUpcomingTasks returns open tasks on active goals ordered by priority
// (high first) then due date with nulls last.
func (r *ProgressRepo) ListUpcomingTasks(ctx context.Context, userID uuid.UUID, limit int) ([]models.UpcomingTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.milestone_id, t.goal_id, t.title, t.description, t.due_date,
			t.status, t.priority, t.completed_at, t.created_at, g.title AS goal_title
		FROM tasks t
		JOIN goals g ON g.id = t.goal_id
		WHERE g.user_id = $1
		  AND g.status = 'active'
		  AND t.status IN ('pending', 'in_progress')
		ORDER BY
			CASE t.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
			t.due_date ASC NULLS LAST,
			t.created_at
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.UpcomingTask, 0)
	for rows.Next() {
		var t models.UpcomingTask
		if scanErr := rows.Scan(
			&t.ID, &t.MilestoneID, &t.GoalID, &t.Title, &t.Description, &t.DueDate,
			&t.Status, &t.Priority, &t.CompletedAt, &t.CreatedAt, &t.GoalTitle,
		); scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type GoalRepo struct {
	pool *pgxpool.Pool
}

func NewGoalRepo(pool *pgxpool.Pool) *GoalRepo {
	return &GoalRepo{pool: pool}
}

func (r *GoalRepo) CreateGoal(ctx context.Context, goal *models.Goal) error {
	goal.ID = uuid.New()
	if goal.Status == "" {
		goal.Status = models.GoalStatusActive
	}
	if goal.Category == "" {
		goal.Category = "other"
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, chat_session_id, title, description, category, target_date, status, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		goal.ID, goal.UserID, goal.ChatSessionID, goal.Title, goal.Description,
		goal.Category, goal.TargetDate, goal.Status, goal.Progress,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
}

func (r *GoalRepo) GetGoal(ctx context.Context, goalID uuid.UUID) (*models.Goal, error) {
	goal := &models.Goal{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, chat_session_id, title, description, category, target_date, status, progress, created_at, updated_at
		FROM goals WHERE id = $1`, goalID,
	).Scan(
		&goal.ID, &goal.UserID, &goal.ChatSessionID, &goal.Title, &goal.Description,
		&goal.Category, &goal.TargetDate, &goal.Status, &goal.Progress,
		&goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *GoalRepo) ListGoals(ctx context.Context, userID uuid.UUID) ([]models.GoalSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.user_id, g.chat_session_id, g.title, g.description, g.category,
			g.target_date, g.status, g.progress, g.created_at, g.updated_at,
			(SELECT COUNT(*) FROM milestones m WHERE m.goal_id = g.id) AS milestone_count,
			(SELECT COUNT(*) FROM tasks t WHERE t.goal_id = g.id) AS task_count,
			(SELECT COUNT(*) FROM tasks t WHERE t.goal_id = g.id AND t.status = 'completed') AS completed_task_count
		FROM goals g
		WHERE g.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]models.GoalSummary, 0)
	for rows.Next() {
		var g models.GoalSummary
		if scanErr := rows.Scan(
			&g.ID, &g.UserID, &g.ChatSessionID, &g.Title, &g.Description, &g.Category,
			&g.TargetDate, &g.Status, &g.Progress, &g.CreatedAt, &g.UpdatedAt,
			&g.MilestoneCount, &g.TaskCount, &g.CompletedTaskCount,
		); scanErr != nil {
			return nil, scanErr
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

func (r *GoalRepo) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE goals SET title = $1, description = $2, category = $3, target_date = $4,
			status = $5, updated_at = NOW()
		WHERE id = $6`,
		goal.Title, goal.Description, goal.Category, goal.TargetDate, goal.Status, goal.ID,
	)
	return err
}

func (r *GoalRepo) UpdateGoalProgress(ctx context.Context, goalID uuid.UUID, progress int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE goals SET progress = $1, updated_at = NOW() WHERE id = $2",
		progress, goalID)
	return err
}

func (r *GoalRepo) UpdateGoalStatus(ctx context.Context, goalID uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE goals SET status = $1, updated_at = NOW() WHERE id = $2",
		status, goalID)
	return err
}

func (r *GoalRepo) DeleteGoal(ctx context.Context, goalID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM goals WHERE id = $1", goalID)
	return err
}

func (r *GoalRepo) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	m.ID = uuid.New()

	return r.pool.QueryRow(ctx, `
		INSERT INTO milestones (id, goal_id, title, description, target_date, position)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM milestones WHERE goal_id = $2))
		RETURNING position, created_at`,
		m.ID, m.GoalID, m.Title, m.Description, m.TargetDate,
	).Scan(&m.Position, &m.CreatedAt)
}

func (r *GoalRepo) GetMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Milestone, error) {
	m := &models.Milestone{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, goal_id, title, description, target_date, position, is_completed, completed_at, created_at
		FROM milestones WHERE id = $1`, milestoneID,
	).Scan(
		&m.ID, &m.GoalID, &m.Title, &m.Description, &m.TargetDate,
		&m.Position, &m.IsCompleted, &m.CompletedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *GoalRepo) ListMilestones(ctx context.Context, goalID uuid.UUID) ([]models.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, goal_id, title, description, target_date, position, is_completed, completed_at, created_at
		FROM milestones
		WHERE goal_id = $1
		ORDER BY position
	`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make([]models.Milestone, 0)
	for rows.Next() {
		var m models.Milestone
		if scanErr := rows.Scan(
			&m.ID, &m.GoalID, &m.Title, &m.Description, &m.TargetDate,
			&m.Position, &m.IsCompleted, &m.CompletedAt, &m.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		milestones = append(milestones, m)
	}

	return milestones, rows.Err()
}

func (r *GoalRepo) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE milestones SET title = $1, description = $2, target_date = $3,
			is_completed = $4, completed_at = $5
		WHERE id = $6`,
		m.Title, m.Description, m.TargetDate, m.IsCompleted, m.CompletedAt, m.ID,
	)
	return err
}

func (r *GoalRepo) SetMilestoneCompleted(ctx context.Context, milestoneID uuid.UUID, completed bool) error {
	var completedAt *time.Time
	if completed {
		now := time.Now()
		completedAt = &now
	}
	_, err := r.pool.Exec(ctx,
		"UPDATE milestones SET is_completed = $1, completed_at = $2 WHERE id = $3",
		completed, completedAt, milestoneID)
	return err
}

func (r *GoalRepo) DeleteMilestone(ctx context.Context, milestoneID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM milestones WHERE id = $1", milestoneID)
	return err
}

func (r *GoalRepo) CreateTask(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, milestone_id, goal_id, title, description, due_date, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		t.ID, t.MilestoneID, t.GoalID, t.Title, t.Description, t.DueDate, t.Status, t.Priority,
	).Scan(&t.CreatedAt)
}

func (r *GoalRepo) GetTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	t := &models.Task{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, milestone_id, goal_id, title, description, due_date, status, priority, completed_at, created_at
		FROM tasks WHERE id = $1`, taskID,
	).Scan(
		&t.ID, &t.MilestoneID, &t.GoalID, &t.Title, &t.Description,
		&t.DueDate, &t.Status, &t.Priority, &t.CompletedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *GoalRepo) ListTasksByGoal(ctx context.Context, goalID uuid.UUID) ([]models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, milestone_id, goal_id, title, description, due_date, status, priority, completed_at, created_at
		FROM tasks
		WHERE goal_id = $1
		ORDER BY created_at
	`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if scanErr := rows.Scan(
			&t.ID, &t.MilestoneID, &t.GoalID, &t.Title, &t.Description,
			&t.DueDate, &t.Status, &t.Priority, &t.CompletedAt, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (r *GoalRepo) UpdateTask(ctx context.Context, t *models.Task) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $1, description = $2, due_date = $3,
			status = $4, priority = $5, completed_at = $6
		WHERE id = $7`,
		t.Title, t.Description, t.DueDate, t.Status, t.Priority, t.CompletedAt, t.ID,
	)
	return err
}

func (r *GoalRepo) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", taskID)
	return err
}

// CountGoalTasks returns the total and completed task counts used for
// goal progress arithmetic.
func (r *GoalRepo) CountGoalTasks(ctx context.Context, goalID uuid.UUID) (total int, completed int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM tasks WHERE goal_id = $1
	`, goalID).Scan(&total, &completed)
	return
}

// CountOpenMilestoneTasks counts tasks in a milestone that are neither
// completed nor skipped. A milestone is done when this reaches zero.
func (r *GoalRepo) CountOpenMilestoneTasks(ctx context.Context, milestoneID uuid.UUID) (int, error) {
	var open int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE milestone_id = $1 AND status NOT IN ('completed', 'skipped')
	`, milestoneID).Scan(&open)
	return open, err
}

// CreateRoadmap persists a goal with its full milestone and task tree and
// marks the originating chat session finalized, all in one transaction.
func (r *GoalRepo) CreateRoadmap(ctx context.Context, goal *models.Goal, milestones []models.MilestoneDetail, sessionID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin roadmap transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	goal.ID = uuid.New()
	goal.Status = models.GoalStatusActive

	err = tx.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, chat_session_id, title, description, category, target_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		goal.ID, goal.UserID, goal.ChatSessionID, goal.Title, goal.Description,
		goal.Category, goal.TargetDate, goal.Status,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	for i := range milestones {
		m := &milestones[i]
		m.ID = uuid.New()
		m.GoalID = goal.ID
		m.Position = i + 1

		err = tx.QueryRow(ctx, `
			INSERT INTO milestones (id, goal_id, title, description, target_date, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			m.ID, m.GoalID, m.Title, m.Description, m.TargetDate, m.Position,
		).Scan(&m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert milestone %d: %w", i+1, err)
		}

		for j := range m.Tasks {
			t := &m.Tasks[j]
			t.ID = uuid.New()
			t.MilestoneID = m.ID
			t.GoalID = goal.ID
			t.Status = models.TaskStatusPending
			if t.Priority == "" {
				t.Priority = "medium"
			}

			err = tx.QueryRow(ctx, `
				INSERT INTO tasks (id, milestone_id, goal_id, title, description, due_date, status, priority)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at`,
				t.ID, t.MilestoneID, t.GoalID, t.Title, t.Description, t.DueDate, t.Status, t.Priority,
			).Scan(&t.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert task: %w", err)
			}
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE chat_sessions SET status = $1, goal_id = $2, title = $3, updated_at = NOW()
		WHERE id = $4`,
		models.SessionStatusFinalized, goal.ID, goal.Title, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize session: %w", err)
	}

	return tx.Commit(ctx)
}

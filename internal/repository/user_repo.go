package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, avatar_url, is_active, auth_provider, oauth_subject, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.AvatarURL,
		&user.IsActive, &user.AuthProvider, &user.OAuthSubject,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, avatar_url, auth_provider, oauth_subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	user.ID = uuid.New()
	user.IsActive = true
	if user.AuthProvider == "" {
		user.AuthProvider = "email"
	}

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.AvatarURL,
		user.AuthProvider, user.OAuthSubject,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByOAuthSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth_provider = $1 AND oauth_subject = $2`,
		provider, subject))
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	return err
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET full_name = $1, email = $2, avatar_url = $3, updated_at = NOW() WHERE id = $4",
		user.FullName, user.Email, user.AvatarURL, user.ID,
	)
	return err
}

type ReminderRecipient struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	PendingTasks int
}

// ListReminderRecipients returns active users who have at least one pending
// or in-progress task due today or overdue on an active goal.
func (r *UserRepo) ListReminderRecipients(ctx context.Context) ([]ReminderRecipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.full_name, COUNT(t.id) AS pending_tasks
		FROM users u
		JOIN goals g ON g.user_id = u.id AND g.status = 'active'
		JOIN tasks t ON t.goal_id = g.id
		WHERE u.is_active = TRUE
		  AND t.status IN ('pending', 'in_progress')
		  AND t.due_date IS NOT NULL
		  AND t.due_date <= CURRENT_DATE
		GROUP BY u.id, u.email, u.full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]ReminderRecipient, 0)
	for rows.Next() {
		var recipient ReminderRecipient
		if scanErr := rows.Scan(&recipient.ID, &recipient.Email, &recipient.FullName, &recipient.PendingTasks); scanErr != nil {
			return nil, scanErr
		}
		recipients = append(recipients, recipient)
	}

	return recipients, rows.Err()
}

// GetWeeklyDigestStats aggregates the last 7 days of activity for the
// weekly progress email.
func (r *UserRepo) GetWeeklyDigestStats(ctx context.Context, userID uuid.UUID) (tasksCompleted int, goalsCompleted int, activeDays int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks t
				JOIN goals g ON g.id = t.goal_id
				WHERE g.user_id = $1 AND t.status = 'completed'
				  AND t.completed_at >= NOW() - INTERVAL '7 days') AS tasks_completed,
			(SELECT COUNT(*) FROM goals
				WHERE user_id = $1 AND status = 'completed'
				  AND updated_at >= NOW() - INTERVAL '7 days') AS goals_completed,
			(SELECT COUNT(*) FROM daily_progress
				WHERE user_id = $1 AND tasks_completed > 0
				  AND day >= CURRENT_DATE - 6) AS active_days
	`, userID).Scan(&tasksCompleted, &goalsCompleted, &activeDays)
	return
}

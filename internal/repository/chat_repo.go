package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"milesync-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) CreateSession(ctx context.Context, session *models.ChatSession) error {
	session.ID = uuid.New()
	session.Status = models.SessionStatusActive

	return r.pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		session.ID, session.UserID, session.Title, session.Status,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
}

func (r *ChatRepo) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ChatSession, error) {
	session := &models.ChatSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, status, goal_id, created_at, updated_at
		FROM chat_sessions WHERE id = $1`, sessionID,
	).Scan(
		&session.ID, &session.UserID, &session.Title, &session.Status,
		&session.GoalID, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the user's sessions newest-updated first, each with
// its message count and a preview of the most recent message.
func (r *ChatRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.SessionSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.user_id, s.title, s.status, s.goal_id, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id) AS message_count,
			(SELECT LEFT(m.content, 100) FROM chat_messages m
				WHERE m.session_id = s.id
				ORDER BY m.created_at DESC LIMIT 1) AS last_message
		FROM chat_sessions s
		WHERE s.user_id = $1
		ORDER BY s.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.SessionSummary, 0)
	for rows.Next() {
		var s models.SessionSummary
		if scanErr := rows.Scan(
			&s.ID, &s.UserID, &s.Title, &s.Status, &s.GoalID, &s.CreatedAt, &s.UpdatedAt,
			&s.MessageCount, &s.LastMessage,
		); scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *ChatRepo) UpdateSessionTitle(ctx context.Context, sessionID uuid.UUID, title string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE chat_sessions SET title = $1, updated_at = NOW() WHERE id = $2",
		title, sessionID)
	return err
}

func (r *ChatRepo) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1", sessionID)
	return err
}

func (r *ChatRepo) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE chat_sessions SET status = $1, updated_at = NOW() WHERE id = $2",
		status, sessionID)
	return err
}

func (r *ChatRepo) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM chat_sessions WHERE id = $1", sessionID)
	return err
}

func (r *ChatRepo) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = uuid.New()

	return r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		msg.ID, msg.SessionID, msg.Role, msg.Content,
	).Scan(&msg.CreatedAt)
}

func (r *ChatRepo) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		if scanErr := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

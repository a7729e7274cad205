package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `user_id, username, state, mood, issue, followup_count, history,
	is_returning, is_new_user, force_greeting, version, created_at, updated_at`

// SessionRepository implements domain.SessionRepository on a single
// chat_sessions row per user with the transcript in a jsonb column
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.History == nil {
		session.History = []domain.Turn{}
	}

	history, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		INSERT INTO chat_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	version := session.Version + 1
	_, err = r.pool.Exec(ctx, query,
		session.UserID,
		session.Username,
		string(session.State),
		moodValue(session.Mood),
		session.Issue,
		session.FollowupCount,
		history,
		session.IsReturning,
		session.IsNewUser,
		session.ForceGreeting,
		version,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	session.Version = version
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM chat_sessions WHERE user_id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// Save overwrites the row only while its version is unchanged
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	history, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		UPDATE chat_sessions
		SET username = $1, state = $2, mood = $3, issue = $4, followup_count = $5,
			history = $6, is_returning = $7, is_new_user = $8, force_greeting = $9,
			version = version + 1, updated_at = $10
		WHERE user_id = $11 AND version = $12
	`
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, query,
		session.Username,
		string(session.State),
		moodValue(session.Mood),
		session.Issue,
		session.FollowupCount,
		history,
		session.IsReturning,
		session.IsNewUser,
		session.ForceGreeting,
		now,
		session.UserID,
		session.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionConflict
	}

	session.Version++
	session.UpdatedAt = now
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM chat_sessions WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + sessionColumns + ` FROM chat_sessions` + where + ` ORDER BY created_at ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) Count(ctx context.Context, filter domain.SessionFilter) (int64, error) {
	where, args := buildWhere(filter)
	query := `SELECT COUNT(*) FROM chat_sessions` + where

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func buildWhere(f domain.SessionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != uuid.Nil {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.State != "" {
		args = append(args, string(f.State))
		conds = append(conds, fmt.Sprintf("state = $%d", len(args)))
	}
	if f.ExcludeState != "" {
		args = append(args, string(f.ExcludeState))
		conds = append(conds, fmt.Sprintf("state <> $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s       domain.Session
		state   string
		mood    *string
		history []byte
	)
	err := row.Scan(
		&s.UserID,
		&s.Username,
		&state,
		&mood,
		&s.Issue,
		&s.FollowupCount,
		&history,
		&s.IsReturning,
		&s.IsNewUser,
		&s.ForceGreeting,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.State = domain.State(state)
	if mood != nil {
		m := domain.Mood(*mood)
		s.Mood = &m
	}
	if err := json.Unmarshal(history, &s.History); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if s.History == nil {
		s.History = []domain.Turn{}
	}
	return &s, nil
}

func moodValue(m *domain.Mood) *string {
	if m == nil {
		return nil
	}
	v := string(*m)
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Package memory provides process-local repositories used for development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository keeps sessions in process memory, copying on every read and write
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
	now      func() time.Time
}

// NewSessionRepository creates an empty store
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[uuid.UUID]*domain.Session),
		now:      time.Now,
	}
}

func (r *SessionRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.UserID]; exists {
		return domain.ErrSessionExists
	}

	now := r.now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.Version++
	if session.History == nil {
		session.History = []domain.Turn{}
	}

	r.sessions[session.UserID] = session.Clone()
	return nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[session.UserID]
	if !ok || stored.Version != session.Version {
		return domain.ErrSessionConflict
	}

	session.Version++
	session.UpdatedAt = r.now().UTC()
	r.sessions[session.UserID] = session.Clone()
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, userID)
	return nil
}

// List returns matching sessions, oldest first
func (r *SessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Session, 0)
	for _, sess := range r.sessions {
		if filter.Matches(sess) {
			result = append(result, *sess.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *SessionRepository) Count(ctx context.Context, filter domain.SessionFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, sess := range r.sessions {
		if filter.Matches(sess) {
			n++
		}
	}
	return n, nil
}

// Ping always succeeds
func (r *SessionRepository) Ping(ctx context.Context) error {
	return nil
}

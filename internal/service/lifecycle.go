package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultMaxRetries = 3

// SessionService owns the session lifecycle: fetch-or-create at the start
// of a turn and the login, reset and logout re-initializations
type SessionService struct {
	sessions   domain.SessionRepository
	maxRetries int
}

// NewSessionService creates a new session service
func NewSessionService(sessions domain.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions, maxRetries: defaultMaxRetries}
}

// FetchOrCreate loads the caller's session, creating it on first use.
// A stored session past greeting with an empty transcript is put back into
// greeting and marked returning; the change is returned in memory and
// persisted with the turn that follows.
func (s *SessionService) FetchOrCreate(ctx context.Context, id domain.Identity) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if sess == nil {
		sess, err = s.create(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if len(sess.History) == 0 && sess.State != domain.StateGreeting {
		log.Info().
			Str("user_id", id.UserID.String()).
			Str("state", string(sess.State)).
			Msg("Healing empty session back to greeting")
		sess.State = domain.StateGreeting
		sess.IsReturning = true
	}
	if id.Username != "" {
		sess.Username = id.Username
	}
	return sess, nil
}

func (s *SessionService) create(ctx context.Context, id domain.Identity) (*domain.Session, error) {
	progressed, err := s.sessions.Count(ctx, domain.SessionFilter{UserID: id.UserID, ExcludeState: domain.StateGreeting})
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	total, err := s.sessions.Count(ctx, domain.SessionFilter{UserID: id.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	sess := &domain.Session{
		UserID:      id.UserID,
		Username:    id.Username,
		State:       domain.StateGreeting,
		History:     []domain.Turn{},
		IsReturning: progressed > 0,
		IsNewUser:   total == 0,
	}

	err = s.sessions.Create(ctx, sess)
	if errors.Is(err, domain.ErrSessionExists) {
		// lost a creation race, use the winner's document
		existing, getErr := s.sessions.Get(ctx, id.UserID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to get session: %w", getErr)
		}
		if existing == nil {
			return nil, domain.ErrSessionConflict
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("user_id", id.UserID.String()).
		Bool("is_new_user", sess.IsNewUser).
		Bool("is_returning", sess.IsReturning).
		Msg("Chat session created")
	return sess, nil
}

// ResetOnLogin puts the session back into greeting and arms a one-shot
// greeting for the next turn. It reports whether the user is returning.
func (s *SessionService) ResetOnLogin(ctx context.Context, id domain.Identity) (bool, error) {
	var returning bool
	err := s.retry(ctx, id, "reset on login", func() error {
		sess, err := s.sessions.Get(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		if sess == nil {
			returning = false
			fresh := &domain.Session{
				UserID:        id.UserID,
				Username:      id.Username,
				State:         domain.StateGreeting,
				History:       []domain.Turn{},
				IsNewUser:     true,
				ForceGreeting: true,
			}
			return s.sessions.Create(ctx, fresh)
		}

		returning = sess.IsReturning || sess.State != domain.StateGreeting
		sess.SoftReset()
		sess.ForceGreeting = true
		sess.IsReturning = returning
		if id.Username != "" {
			sess.Username = id.Username
		}
		return s.sessions.Save(ctx, sess)
	})
	if err != nil {
		return false, err
	}
	return returning, nil
}

// Reset drops the session and starts a fresh one
func (s *SessionService) Reset(ctx context.Context, id domain.Identity) error {
	return s.retry(ctx, id, "reset", func() error {
		prev, err := s.sessions.Get(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		if err := s.sessions.Delete(ctx, id.UserID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		fresh := &domain.Session{
			UserID:   id.UserID,
			Username: id.Username,
			State:    domain.StateGreeting,
			History:  []domain.Turn{},
		}
		if prev != nil {
			fresh.Version = prev.Version
		}
		return s.sessions.Create(ctx, fresh)
	})
}

// Logout clears the conversation but keeps the document and its flags
func (s *SessionService) Logout(ctx context.Context, id domain.Identity) error {
	return s.retry(ctx, id, "logout", func() error {
		sess, err := s.sessions.Get(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		if sess == nil {
			return nil
		}
		sess.SoftReset()
		return s.sessions.Save(ctx, sess)
	})
}

// retry reruns an idempotent read-modify-write when it lost a race
func (s *SessionService) retry(ctx context.Context, id domain.Identity, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrSessionConflict) && !errors.Is(err, domain.ErrSessionExists) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug().
			Str("user_id", id.UserID.String()).
			Str("op", op).
			Int("attempt", attempt).
			Msg("Session write conflict, retrying")
	}
	return fmt.Errorf("%s: %w", op, domain.ErrSessionConflict)
}

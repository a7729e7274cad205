package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ashudevin/caremind/internal/conversation"
	"github.com/ashudevin/caremind/internal/domain"
	"github.com/rs/zerolog/log"
)

// ChatService runs one conversation turn: fetch, step, persist
type ChatService struct {
	lifecycle *SessionService
	sessions  domain.SessionRepository
	machine   *conversation.Machine
	timeout   time.Duration
}

// NewChatService creates a new chat service. timeout bounds the text
// generation of a single turn; zero disables it.
func NewChatService(
	lifecycle *SessionService,
	sessions domain.SessionRepository,
	machine *conversation.Machine,
	timeout time.Duration,
) *ChatService {
	return &ChatService{
		lifecycle: lifecycle,
		sessions:  sessions,
		machine:   machine,
		timeout:   timeout,
	}
}

// HandleTurn advances the caller's conversation with an optional message
// and returns the bot reply. Nothing is persisted unless the whole turn,
// generated text included, succeeded.
func (s *ChatService) HandleTurn(ctx context.Context, id domain.Identity, message *string) (string, error) {
	sess, err := s.lifecycle.FetchOrCreate(ctx, id)
	if err != nil {
		return "", err
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.machine.Step(genCtx, sess, message)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", id.UserID.String()).
			Str("state", string(sess.State)).
			Msg("Chat turn failed")
		return "", err
	}

	if res.Session == nil {
		return res.Reply, nil
	}

	if err := s.sessions.Save(ctx, res.Session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	log.Info().
		Str("user_id", id.UserID.String()).
		Str("from", string(sess.State)).
		Str("to", string(res.Session.State)).
		Dur("latency", time.Since(start)).
		Msg("Chat turn completed")

	return res.Reply, nil
}

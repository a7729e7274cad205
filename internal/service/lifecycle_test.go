package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIdentity() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Username: "Sam", Email: "sam@example.com"}
}

func seed(t *testing.T, repo *memory.SessionRepository, s *domain.Session) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), s))
}

func TestSessionService_FetchOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new user session", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()

		sess, err := svc.FetchOrCreate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StateGreeting, sess.State)
		assert.True(t, sess.IsNewUser)
		assert.False(t, sess.IsReturning)
		assert.Empty(t, sess.History)
		assert.Equal(t, int64(1), sess.Version)

		stored, _ := repo.Get(ctx, id.UserID)
		require.NotNil(t, stored)
	})

	t.Run("heals empty session", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()
		seed(t, repo, &domain.Session{UserID: id.UserID, Username: "Sam", State: domain.StateFollowup})

		sess, err := svc.FetchOrCreate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StateGreeting, sess.State)
		assert.True(t, sess.IsReturning)

		// persisted only with the next turn
		stored, _ := repo.Get(ctx, id.UserID)
		assert.Equal(t, domain.StateFollowup, stored.State)
	})

	t.Run("keeps session with history", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()
		seed(t, repo, &domain.Session{
			UserID:  id.UserID,
			State:   domain.StateIssue,
			History: []domain.Turn{{Role: domain.TurnRoleBot, State: "issue_prompt", Message: "?"}},
		})

		sess, err := svc.FetchOrCreate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StateIssue, sess.State)
		assert.Equal(t, "Sam", sess.Username)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockSessionRepository)
		id := newIdentity()
		repo.On("Get", ctx, id.UserID).Return(nil, errors.New("connection refused"))

		_, err := NewSessionService(repo).FetchOrCreate(ctx, id)
		assert.ErrorContains(t, err, "connection refused")
		repo.AssertExpectations(t)
	})

	t.Run("lost creation race", func(t *testing.T) {
		repo := new(MockSessionRepository)
		id := newIdentity()
		winner := &domain.Session{
			UserID:  id.UserID,
			State:   domain.StateGreeting,
			History: []domain.Turn{{Role: domain.TurnRoleBot, State: "greeting", Message: "hi"}},
			Version: 2,
		}
		repo.On("Get", ctx, id.UserID).Return(nil, nil).Once()
		repo.On("Count", ctx, mock.Anything).Return(int64(0), nil)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(domain.ErrSessionExists)
		repo.On("Get", ctx, id.UserID).Return(winner, nil).Once()

		sess, err := NewSessionService(repo).FetchOrCreate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), sess.Version)
		repo.AssertExpectations(t)
	})
}

func TestSessionService_ResetOnLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("no session creates forced greeting", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()

		returning, err := svc.ResetOnLogin(ctx, id)
		require.NoError(t, err)
		assert.False(t, returning)

		stored, _ := repo.Get(ctx, id.UserID)
		require.NotNil(t, stored)
		assert.Equal(t, domain.StateGreeting, stored.State)
		assert.True(t, stored.ForceGreeting)
		assert.True(t, stored.IsNewUser)
		assert.False(t, stored.IsReturning)
	})

	t.Run("progressed session becomes returning", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()
		mood := domain.MoodNegative
		issue := "exams"
		seed(t, repo, &domain.Session{
			UserID:        id.UserID,
			State:         domain.StateFollowup,
			Mood:          &mood,
			Issue:         &issue,
			FollowupCount: 2,
			History:       []domain.Turn{{Role: domain.TurnRoleUser, State: "issue", Message: "exams"}},
		})

		returning, err := svc.ResetOnLogin(ctx, id)
		require.NoError(t, err)
		assert.True(t, returning)

		stored, _ := repo.Get(ctx, id.UserID)
		assert.Equal(t, domain.StateGreeting, stored.State)
		assert.Empty(t, stored.History)
		assert.Nil(t, stored.Mood)
		assert.Nil(t, stored.Issue)
		assert.Zero(t, stored.FollowupCount)
		assert.True(t, stored.ForceGreeting)
		assert.True(t, stored.IsReturning)
	})

	t.Run("idempotent", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()
		seed(t, repo, &domain.Session{
			UserID:  id.UserID,
			State:   domain.StateFinal,
			History: []domain.Turn{{Role: domain.TurnRoleBot, State: "final", Message: "summary"}},
		})

		shape := func() (domain.State, int, bool, bool) {
			s, _ := repo.Get(ctx, id.UserID)
			return s.State, len(s.History), s.ForceGreeting, s.IsReturning
		}

		first, err := svc.ResetOnLogin(ctx, id)
		require.NoError(t, err)
		st1, h1, f1, r1 := shape()

		second, err := svc.ResetOnLogin(ctx, id)
		require.NoError(t, err)
		st2, h2, f2, r2 := shape()

		assert.Equal(t, first, second)
		assert.Equal(t, domain.StateGreeting, st1)
		assert.Equal(t, []any{st1, h1, f1, r1}, []any{st2, h2, f2, r2})
		assert.Zero(t, h2)
		assert.True(t, f2)
	})

	t.Run("retries on conflict", func(t *testing.T) {
		repo := new(MockSessionRepository)
		id := newIdentity()
		sess := &domain.Session{UserID: id.UserID, State: domain.StateIssue, Version: 3}

		repo.On("Get", ctx, id.UserID).Return(sess, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*domain.Session")).Return(domain.ErrSessionConflict).Once()
		repo.On("Save", ctx, mock.AnythingOfType("*domain.Session")).Return(nil).Once()

		returning, err := NewSessionService(repo).ResetOnLogin(ctx, id)
		require.NoError(t, err)
		assert.True(t, returning)
		repo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("gives up after retries", func(t *testing.T) {
		repo := new(MockSessionRepository)
		id := newIdentity()
		repo.On("Get", ctx, id.UserID).Return(&domain.Session{UserID: id.UserID, State: domain.StateGreeting}, nil)
		repo.On("Save", ctx, mock.Anything).Return(domain.ErrSessionConflict)

		_, err := NewSessionService(repo).ResetOnLogin(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionConflict)
		repo.AssertNumberOfCalls(t, "Save", defaultMaxRetries)
	})
}

func TestSessionService_Reset(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	svc := NewSessionService(repo)
	id := newIdentity()

	seed(t, repo, &domain.Session{
		UserID:      id.UserID,
		State:       domain.StateFollowup,
		IsReturning: true,
		IsNewUser:   true,
		History: []domain.Turn{
			{Role: domain.TurnRoleBot, State: "greeting", Message: "hi"},
			{Role: domain.TurnRoleUser, State: "greeting_response", Message: "meh"},
		},
	})
	stale, _ := repo.Get(ctx, id.UserID)

	require.NoError(t, svc.Reset(ctx, id))

	fresh, _ := repo.Get(ctx, id.UserID)
	require.NotNil(t, fresh)
	assert.Equal(t, domain.StateGreeting, fresh.State)
	assert.Empty(t, fresh.History)
	assert.False(t, fresh.IsReturning)
	assert.False(t, fresh.IsNewUser)
	assert.Greater(t, fresh.Version, stale.Version)

	// a turn computed before the reset cannot overwrite the new session
	stale.Append(domain.TurnRoleUser, "issue", "late")
	assert.ErrorIs(t, repo.Save(ctx, stale), domain.ErrSessionConflict)
}

func TestSessionService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("soft reset keeps flags", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		svc := NewSessionService(repo)
		id := newIdentity()
		seed(t, repo, &domain.Session{
			UserID:      id.UserID,
			State:       domain.StateEmpatheticValidation,
			IsReturning: true,
			History:     []domain.Turn{{Role: domain.TurnRoleUser, State: "issue", Message: "x"}},
		})

		require.NoError(t, svc.Logout(ctx, id))

		stored, _ := repo.Get(ctx, id.UserID)
		assert.Equal(t, domain.StateGreeting, stored.State)
		assert.Empty(t, stored.History)
		assert.False(t, stored.ForceGreeting)
		assert.True(t, stored.IsReturning)
	})

	t.Run("missing session is a no-op", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		id := newIdentity()

		require.NoError(t, NewSessionService(repo).Logout(ctx, id))
		stored, _ := repo.Get(ctx, id.UserID)
		assert.Nil(t, stored)
	})
}

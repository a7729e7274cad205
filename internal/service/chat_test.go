package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashudevin/caremind/internal/conversation"
	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/repository/memory"
	"github.com/ashudevin/caremind/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func newChatService(repo domain.SessionRepository, gen domain.DialogueGenerator) *ChatService {
	machine := conversation.NewMachine(sentiment.NewAnalyzer(), gen)
	return NewChatService(NewSessionService(repo), repo, machine, time.Second)
}

func TestChatService_NewUserScenario(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	svc := newChatService(repo, new(MockGenerator))
	id := newIdentity()

	reply, err := svc.HandleTurn(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Sam, I am CareMind, your personal healthcare companion. I'm here to provide a safe space for you to share your thoughts and feelings. How are you feeling today?", reply)

	stored, _ := repo.Get(ctx, id.UserID)
	assert.Equal(t, domain.StateGreeting, stored.State)
	require.Len(t, stored.History, 1)
	assert.Equal(t, domain.TurnRoleBot, stored.History[0].Role)

	reply, err = svc.HandleTurn(ctx, id, strp("I feel okay"))
	require.NoError(t, err)
	assert.Equal(t, "I see you're feeling neutral. Can you please share what is bothering you today?", reply)

	stored, _ = repo.Get(ctx, id.UserID)
	assert.Equal(t, domain.StateIssue, stored.State)
	require.NotNil(t, stored.Mood)
	assert.Equal(t, domain.MoodNeutral, *stored.Mood)
	assert.Len(t, stored.History, 3)
}

func TestChatService_LoginThenGreeting(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	svc := newChatService(repo, new(MockGenerator))
	lifecycle := NewSessionService(repo)
	id := newIdentity()

	seed(t, repo, &domain.Session{
		UserID:  id.UserID,
		State:   domain.StateFinal,
		History: []domain.Turn{{Role: domain.TurnRoleBot, State: "final", Message: "summary"}},
	})

	_, err := lifecycle.ResetOnLogin(ctx, id)
	require.NoError(t, err)

	// forced greeting fires even though a message came along
	reply, err := svc.HandleTurn(ctx, id, strp("hello"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Welcome back, Sam!")

	stored, _ := repo.Get(ctx, id.UserID)
	assert.False(t, stored.ForceGreeting)
	assert.Len(t, stored.History, 1)

	// the flag was one-shot
	reply, err = svc.HandleTurn(ctx, id, strp("I am happy"))
	require.NoError(t, err)
	assert.Contains(t, reply, "feeling positive")
}

func TestChatService_FollowupToFinalAndRestart(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("model overloaded"))
	svc := newChatService(repo, gen)
	id := newIdentity()

	issue := "sleep"
	seed(t, repo, &domain.Session{
		UserID:        id.UserID,
		Username:      "Sam",
		State:         domain.StateFollowup,
		Issue:         &issue,
		FollowupCount: 3,
		IsNewUser:     true,
		History:       []domain.Turn{{Role: domain.TurnRoleBot, State: "followup", Message: "..."}},
	})

	reply, err := svc.HandleTurn(ctx, id, strp("still tired"))
	require.NoError(t, err)
	assert.Equal(t, conversation.SummaryFallbackText, reply)

	stored, _ := repo.Get(ctx, id.UserID)
	assert.Equal(t, domain.StateFinal, stored.State)
	assert.False(t, stored.IsNewUser)

	reply, err = svc.HandleTurn(ctx, id, strp("ok"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "Our session is completed, Sam."))

	stored, _ = repo.Get(ctx, id.UserID)
	assert.Equal(t, domain.StateIssue, stored.State)
	assert.Zero(t, stored.FollowupCount)
}

func TestChatService_GenerationFailureNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("unavailable"))
	svc := newChatService(repo, gen)
	id := newIdentity()

	seed(t, repo, &domain.Session{
		UserID:  id.UserID,
		State:   domain.StateIssue,
		History: []domain.Turn{{Role: domain.TurnRoleBot, State: "issue_prompt", Message: "?"}},
	})
	before, _ := repo.Get(ctx, id.UserID)

	_, err := svc.HandleTurn(ctx, id, strp("my job"))
	assert.ErrorIs(t, err, domain.ErrGeneration)

	after, _ := repo.Get(ctx, id.UserID)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.History, 1)
}

func TestChatService_GenerationUsesTimeout(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	gen := new(MockGenerator)
	gen.On("Generate", mock.MatchedBy(func(c context.Context) bool {
		_, ok := c.Deadline()
		return ok
	}), mock.Anything).Return("I hear you.", nil)
	svc := newChatService(repo, gen)
	id := newIdentity()

	seed(t, repo, &domain.Session{
		UserID:  id.UserID,
		State:   domain.StateIssue,
		History: []domain.Turn{{Role: domain.TurnRoleBot, State: "issue_prompt", Message: "?"}},
	})

	reply, err := svc.HandleTurn(ctx, id, strp("my job"))
	require.NoError(t, err)
	assert.Equal(t, "I hear you.", reply)
	gen.AssertExpectations(t)
}

func TestChatService_UnknownStateNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	svc := newChatService(repo, new(MockGenerator))
	id := newIdentity()

	seed(t, repo, &domain.Session{
		UserID:  id.UserID,
		State:   domain.State("bogus"),
		History: []domain.Turn{{Role: domain.TurnRoleBot, State: "greeting", Message: "hi"}},
	})

	reply, err := svc.HandleTurn(ctx, id, strp("hello"))
	require.NoError(t, err)
	assert.Equal(t, conversation.UnknownStateReply, reply)

	stored, _ := repo.Get(ctx, id.UserID)
	assert.Equal(t, int64(1), stored.Version)
	assert.Len(t, stored.History, 1)
}

func TestChatService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSessionRepository)
	id := newIdentity()
	sess := &domain.Session{
		UserID:  id.UserID,
		State:   domain.StateGreeting,
		History: []domain.Turn{{Role: domain.TurnRoleBot, State: "greeting", Message: "hi"}},
		Version: 1,
	}
	repo.On("Get", ctx, id.UserID).Return(sess, nil)
	repo.On("Save", ctx, mock.Anything).Return(errors.New("write concern failed"))

	reply, err := newChatService(repo, new(MockGenerator)).HandleTurn(ctx, id, strp("I am happy"))
	assert.Empty(t, reply)
	assert.ErrorContains(t, err, "write concern failed")
}

func TestChatService_ConcurrentTurns(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	id := newIdentity()

	const n = 8
	entered := make(chan struct{}, n)
	release := make(chan struct{})

	// every turn blocks in generation until all of them have read the session
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			entered <- struct{}{}
			<-release
		}).
		Return("noted", nil)
	svc := newChatService(repo, gen)

	seed(t, repo, &domain.Session{
		UserID:  id.UserID,
		State:   domain.StateIssue,
		History: []domain.Turn{{Role: domain.TurnRoleBot, State: "issue_prompt", Message: "what is bothering you?"}},
	})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.HandleTurn(ctx, id, strp("exams"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrSessionConflict):
				conflicts++
			}
		}()
	}

	for i := 0; i < n; i++ {
		<-entered
	}
	close(release)
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	stored, _ := repo.Get(ctx, id.UserID)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, domain.StateEmpatheticValidation, stored.State)
	require.Len(t, stored.History, 3)
	assert.Equal(t, "exams", stored.History[1].Message)
	assert.Equal(t, "noted", stored.History[2].Message)
}

func TestChatService_HealedSessionGreetsAsReturning(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	svc := newChatService(repo, new(MockGenerator))
	id := newIdentity()

	seed(t, repo, &domain.Session{UserID: id.UserID, Username: "Sam", State: domain.StateFollowup})

	reply, err := svc.HandleTurn(ctx, id, nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Welcome back, Sam!")

	stored, _ := repo.Get(ctx, id.UserID)
	assert.Equal(t, domain.StateGreeting, stored.State)
	assert.True(t, stored.IsReturning)
	assert.Len(t, stored.History, 1)
}

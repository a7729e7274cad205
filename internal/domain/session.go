package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State is the position of a session in the scripted conversation
type State string

const (
	StateGreeting             State = "greeting"
	StateMood                 State = "mood" // legacy, still reachable from old documents
	StateIssue                State = "issue"
	StateEmpatheticValidation State = "empathetic_validation"
	StateFollowup             State = "followup"
	StateFinal                State = "final"
)

// Valid reports whether s is one of the known states
func (s State) Valid() bool {
	switch s {
	case StateGreeting, StateMood, StateIssue, StateEmpatheticValidation, StateFollowup, StateFinal:
		return true
	}
	return false
}

// Mood is the polarity class assigned to the user's first reply
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// TurnRole identifies the author of a history record
type TurnRole string

const (
	TurnRoleUser TurnRole = "user"
	TurnRoleBot  TurnRole = "bot"
)

// Turn is a single transcript record
type Turn struct {
	Role    TurnRole `json:"role"`
	State   string   `json:"state"`
	Message string   `json:"message"`
}

// Session is the persisted conversation state of one user.
// Version is bumped by the store on every successful Save.
type Session struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	State         State     `json:"state"`
	Mood          *Mood     `json:"mood"`
	Issue         *string   `json:"issue"`
	FollowupCount int       `json:"followup_count"`
	History       []Turn    `json:"history"`
	IsReturning   bool      `json:"is_returning"`
	IsNewUser     bool      `json:"is_new_user"`
	ForceGreeting bool      `json:"force_greeting"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Mood != nil {
		m := *s.Mood
		c.Mood = &m
	}
	if s.Issue != nil {
		i := *s.Issue
		c.Issue = &i
	}
	c.History = make([]Turn, len(s.History))
	copy(c.History, s.History)
	return &c
}

// Append adds a record to the end of the transcript
func (s *Session) Append(role TurnRole, state, message string) {
	s.History = append(s.History, Turn{Role: role, State: state, Message: message})
}

// SoftReset puts the session back to the greeting defaults: greeting state,
// empty transcript, no mood, no issue, zero follow-ups.
func (s *Session) SoftReset() {
	s.State = StateGreeting
	s.History = []Turn{}
	s.Mood = nil
	s.Issue = nil
	s.FollowupCount = 0
}

// SessionFilter narrows List and Count queries. Zero fields match everything.
type SessionFilter struct {
	UserID       uuid.UUID
	State        State
	ExcludeState State
	Limit        int
}

// Matches reports whether s satisfies the filter
func (f SessionFilter) Matches(s *Session) bool {
	if f.UserID != uuid.Nil && s.UserID != f.UserID {
		return false
	}
	if f.State != "" && s.State != f.State {
		return false
	}
	if f.ExcludeState != "" && s.State == f.ExcludeState {
		return false
	}
	return true
}

// SessionRepository defines the interface for chat session storage.
//
// Get returns (nil, nil) when the user has no session. Create fails with
// ErrSessionExists if one is already stored; it stores s.Version+1 so a
// document recreated after Delete never reuses a version a stale writer
// could still hold. Save writes the whole document atomically, only if the
// stored version still equals s.Version, and bumps s.Version on success;
// otherwise (including a deleted document) it returns ErrSessionConflict.
type SessionRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Session, error)
	Create(ctx context.Context, session *Session) error
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, filter SessionFilter) ([]Session, error)
	Count(ctx context.Context, filter SessionFilter) (int64, error)
}

// SentimentScores is the classifier output. Compound lies in [-1, 1].
type SentimentScores struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// SentimentClassifier maps free text to polarity scores
type SentimentClassifier interface {
	Classify(text string) SentimentScores
}

// DialogueGenerator turns a prompt into free-form text
type DialogueGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MoodFromCompound maps a compound polarity score to a mood class
func MoodFromCompound(compound float64) Mood {
	switch {
	case compound >= 0.05:
		return MoodPositive
	case compound <= -0.05:
		return MoodNegative
	default:
		return MoodNeutral
	}
}

// Package conversation implements the scripted therapy dialogue as an
// explicit (state, event) transition table.
package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/llm"
	"github.com/rs/zerolog/log"
)

// DefaultFollowupLimit is the number of reflection rounds before the summary
const DefaultFollowupLimit = 3

// Event classifies an incoming turn
type Event int

const (
	// EventOpen is a turn without a message, or one forced by a login reset
	EventOpen Event = iota
	// EventMessage is a turn carrying user text
	EventMessage
	eventAny
)

func (e Event) String() string {
	switch e {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	}
	return "any"
}

// turn is the working set of one transition
type turn struct {
	sess    *domain.Session
	message string
	forced  bool
}

type action func(ctx context.Context, t *turn) (string, error)

// Result of one step. Session is nil when nothing must be persisted.
type Result struct {
	Reply   string
	Session *domain.Session
}

// Machine advances a session by one turn using its transition table
type Machine struct {
	classifier    domain.SentimentClassifier
	generator     domain.DialogueGenerator
	followupLimit int
	table         map[domain.State]map[Event]action
}

// Option configures a Machine
type Option func(*Machine)

// WithFollowupLimit overrides the number of follow-up rounds
func WithFollowupLimit(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.followupLimit = n
		}
	}
}

// NewMachine creates a state machine with the given collaborators
func NewMachine(classifier domain.SentimentClassifier, generator domain.DialogueGenerator, opts ...Option) *Machine {
	m := &Machine{
		classifier:    classifier,
		generator:     generator,
		followupLimit: DefaultFollowupLimit,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.table = map[domain.State]map[Event]action{
		domain.StateGreeting: {
			EventOpen:    m.greet,
			EventMessage: m.acceptGreetingResponse,
		},
		domain.StateMood:                 {eventAny: m.acceptLegacyMood},
		domain.StateIssue:                {eventAny: m.acceptIssue},
		domain.StateEmpatheticValidation: {eventAny: m.acceptValidationResponse},
		domain.StateFollowup:             {eventAny: m.acceptFollowupResponse},
		domain.StateFinal:                {eventAny: m.restart},
	}
	return m
}

// Step runs one turn against a copy of sess. The input session is never
// modified. A pending force-greeting is consumed here and cleared on the
// returned session, so persisting the result clears it in the same write.
func (m *Machine) Step(ctx context.Context, sess *domain.Session, message *string) (*Result, error) {
	t := &turn{sess: sess.Clone(), forced: sess.ForceGreeting}
	if message != nil {
		t.message = strings.TrimSpace(*message)
	}

	if t.forced {
		t.sess.State = domain.StateGreeting
		t.sess.ForceGreeting = false
	}

	ev := EventMessage
	if t.forced || t.message == "" {
		ev = EventOpen
	}

	from := t.sess.State
	act, ok := m.lookup(from, ev)
	if !ok {
		log.Warn().
			Str("user_id", sess.UserID.String()).
			Str("state", string(from)).
			Msg("Unknown conversation state")
		return &Result{Reply: UnknownStateReply}, nil
	}

	reply, err := act(ctx, t)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("user_id", sess.UserID.String()).
		Str("from", string(from)).
		Str("event", ev.String()).
		Str("to", string(t.sess.State)).
		Int("history", len(t.sess.History)).
		Msg("Conversation transition")

	return &Result{Reply: reply, Session: t.sess}, nil
}

func (m *Machine) lookup(state domain.State, ev Event) (action, bool) {
	events, ok := m.table[state]
	if !ok {
		return nil, false
	}
	if act, ok := events[ev]; ok {
		return act, true
	}
	act, ok := events[eventAny]
	return act, ok
}

func (m *Machine) greet(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	if t.forced {
		s.History = []domain.Turn{}
	}

	var msg string
	switch {
	case s.IsReturning:
		msg = returningGreeting(s.Username)
	case s.IsNewUser:
		msg = newUserGreeting(s.Username)
	default:
		msg = genericGreeting(s.Username)
	}

	s.Append(domain.TurnRoleBot, tagGreeting, msg)
	return msg, nil
}

func (m *Machine) classify(text string) domain.Mood {
	return domain.MoodFromCompound(m.classifier.Classify(text).Compound)
}

func (m *Machine) enterIssue(s *domain.Session) {
	s.State = domain.StateIssue
	s.FollowupCount = 0
}

func (m *Machine) acceptGreetingResponse(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	s.Append(domain.TurnRoleUser, tagGreetingResponse, t.message)

	mood := m.classify(t.message)
	s.Mood = &mood

	msg := moodPrompt(string(mood))
	s.Append(domain.TurnRoleBot, tagIssuePrompt, msg)
	m.enterIssue(s)
	return msg, nil
}

func (m *Machine) acceptLegacyMood(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	mood := m.classify(t.message)
	s.Mood = &mood

	s.Append(domain.TurnRoleUser, tagMood, t.message)
	msg := legacyMoodPrompt(s.Username, string(mood))
	s.Append(domain.TurnRoleBot, tagIssuePrompt, msg)
	m.enterIssue(s)
	return msg, nil
}

func (m *Machine) acceptIssue(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	issue := t.message
	s.Append(domain.TurnRoleUser, tagIssue, issue)

	reply, err := m.generate(ctx, llm.BuildValidationPrompt(issue))
	if err != nil {
		return "", err
	}

	s.Issue = &issue
	s.Append(domain.TurnRoleBot, tagEmpatheticValidation, reply)
	s.State = domain.StateEmpatheticValidation
	return reply, nil
}

func (m *Machine) acceptValidationResponse(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	s.Append(domain.TurnRoleUser, tagEmpatheticValidationResponse, t.message)

	reply, err := m.generate(ctx, m.followupPrompt(s))
	if err != nil {
		return "", err
	}

	s.Append(domain.TurnRoleBot, tagFollowup, reply)
	s.State = domain.StateFollowup
	return reply, nil
}

func (m *Machine) acceptFollowupResponse(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	s.Append(domain.TurnRoleUser, tagFollowupResponse, t.message)
	count := s.FollowupCount + 1

	if count <= m.followupLimit {
		reply, err := m.generate(ctx, m.followupPrompt(s))
		if err != nil {
			return "", err
		}
		s.Append(domain.TurnRoleBot, tagFollowup, reply)
		s.FollowupCount = count
		return reply, nil
	}

	summary, err := m.generate(ctx, llm.BuildSummaryPrompt(s.History))
	if err != nil || summary == "" {
		log.Warn().Err(err).Str("user_id", s.UserID.String()).Msg("Final summary failed, using fallback")
		summary = SummaryFallbackText
	}

	s.Append(domain.TurnRoleBot, tagFinal, summary)
	s.FollowupCount = count
	s.State = domain.StateFinal
	s.IsNewUser = false
	return summary, nil
}

// restart ignores the user text and asks for a new issue
func (m *Machine) restart(ctx context.Context, t *turn) (string, error) {
	s := t.sess
	msg := restartMessage(s.Username)
	s.Append(domain.TurnRoleBot, tagIssuePrompt, msg)
	m.enterIssue(s)
	s.IsNewUser = false
	return msg, nil
}

func (m *Machine) followupPrompt(s *domain.Session) string {
	var issue, mood string
	if s.Issue != nil {
		issue = *s.Issue
	}
	if s.Mood != nil {
		mood = string(*s.Mood)
	}
	return llm.BuildFollowupPrompt(issue, mood, s.History)
}

func (m *Machine) generate(ctx context.Context, prompt string) (string, error) {
	reply, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return reply, nil
}

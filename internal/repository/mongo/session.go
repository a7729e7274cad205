package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type turnDoc struct {
	Role    string `bson:"role"`
	State   string `bson:"state"`
	Message string `bson:"message"`
}

type sessionDoc struct {
	UserID        string    `bson:"user_id"`
	Username      string    `bson:"username"`
	State         string    `bson:"state"`
	Mood          *string   `bson:"mood"`
	Issue         *string   `bson:"issue"`
	FollowupCount int       `bson:"followup_count"`
	History       []turnDoc `bson:"history"`
	IsReturning   bool      `bson:"is_returning"`
	IsNewUser     bool      `bson:"is_new_user"`
	ForceGreeting bool      `bson:"force_greeting"`
	Version       int64     `bson:"version"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toSessionDoc(s *domain.Session) sessionDoc {
	doc := sessionDoc{
		UserID:        s.UserID.String(),
		Username:      s.Username,
		State:         string(s.State),
		Issue:         s.Issue,
		FollowupCount: s.FollowupCount,
		History:       make([]turnDoc, len(s.History)),
		IsReturning:   s.IsReturning,
		IsNewUser:     s.IsNewUser,
		ForceGreeting: s.ForceGreeting,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Mood != nil {
		m := string(*s.Mood)
		doc.Mood = &m
	}
	for i, t := range s.History {
		doc.History[i] = turnDoc{Role: string(t.Role), State: t.State, Message: t.Message}
	}
	return doc
}

func (d sessionDoc) toDomain() (*domain.Session, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id %q: %w", d.UserID, err)
	}

	s := &domain.Session{
		UserID:        userID,
		Username:      d.Username,
		State:         domain.State(d.State),
		Issue:         d.Issue,
		FollowupCount: d.FollowupCount,
		History:       make([]domain.Turn, len(d.History)),
		IsReturning:   d.IsReturning,
		IsNewUser:     d.IsNewUser,
		ForceGreeting: d.ForceGreeting,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.Mood != nil {
		m := domain.Mood(*d.Mood)
		s.Mood = &m
	}
	for i, t := range d.History {
		s.History[i] = domain.Turn{Role: domain.TurnRole(t.Role), State: t.State, Message: t.Message}
	}
	return s, nil
}

type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(coll *mongo.Collection) *SessionRepository {
	return &SessionRepository{coll: coll}
}

func (r *SessionRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	var doc sessionDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return doc.toDomain()
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

	doc := toSessionDoc(session)
	doc.Version = session.Version + 1

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	session.Version = doc.Version
	return nil
}

// Save replaces the document only while its version is unchanged
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	doc := toSessionDoc(session)
	doc.Version = session.Version + 1
	doc.UpdatedAt = time.Now().UTC()

	filter := bson.M{"user_id": doc.UserID, "version": session.Version}
	res, err := r.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionConflict
	}

	session.Version = doc.Version
	session.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID.String()}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(docs))
	for _, doc := range docs {
		s, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (r *SessionRepository) Count(ctx context.Context, filter domain.SessionFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func buildFilter(f domain.SessionFilter) bson.M {
	q := bson.M{}
	if f.UserID != uuid.Nil {
		q["user_id"] = f.UserID.String()
	}
	switch {
	case f.State != "":
		q["state"] = string(f.State)
	case f.ExcludeState != "":
		q["state"] = bson.M{"$ne": string(f.ExcludeState)}
	}
	return q
}

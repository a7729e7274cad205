package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ashudevin/caremind/internal/domain"
	"github.com/google/uuid"
)

// UserRepository keeps accounts in process memory, indexed by lowercase email
type UserRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]domain.User
	byEmail map[string]uuid.UUID
}

// NewUserRepository creates an empty store
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[uuid.UUID]domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return domain.ErrEmailTaken
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = *user
	r.byEmail[key] = user.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	u := r.users[id]
	return &u, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[strings.ToLower(email)]
	return ok, nil
}

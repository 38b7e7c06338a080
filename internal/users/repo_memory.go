package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

// Create stores a new user, enforcing uniqueness like the users table does.
func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflictLocked(user); err != nil {
		return err
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

// GetByID returns a user by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// GetByLogin matches a username or a case-insensitive email.
func (r *MemoryRepo) GetByLogin(ctx context.Context, usernameOrEmail string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == usernameOrEmail || strings.EqualFold(u.Email, usernameOrEmail) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// Update replaces the profile fields of an existing user.
func (r *MemoryRepo) Update(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.conflictLocked(user); err != nil {
		return err
	}
	existing.Username = user.Username
	existing.Email = user.Email
	existing.Name = user.Name
	existing.Surname = user.Surname
	existing.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = existing
	return nil
}

func (r *MemoryRepo) conflictLocked(user User) error {
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		switch {
		case u.Username == user.Username:
			return ErrUsernameTaken
		case strings.EqualFold(u.Email, user.Email):
			return ErrEmailTaken
		case user.HashedSAID != "" && u.HashedSAID == user.HashedSAID:
			return ErrSAIDTaken
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

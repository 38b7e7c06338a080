package users

import "context"

// Repo defines persistence operations for users. Create and Update report
// uniqueness violations as ErrUsernameTaken, ErrEmailTaken or ErrSAIDTaken.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (User, error)
	Update(ctx context.Context, user User) error
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, username, email, name, surname, hashed_sa_id, hashed_password, consent_popi, consent_terms, consent_given_at, is_active, created_at, updated_at`

// Create inserts a new user.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (
    id,
    username,
    email,
    name,
    surname,
    hashed_sa_id,
    hashed_password,
    consent_popi,
    consent_terms,
    consent_given_at,
    is_active,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`

	var consentAt sql.NullTime
	if user.ConsentGivenAt != nil {
		consentAt = sql.NullTime{Time: *user.ConsentGivenAt, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Name,
		user.Surname,
		user.HashedSAID,
		user.HashedPassword,
		user.ConsentPOPI,
		user.ConsentTerms,
		consentAt,
		user.IsActive,
		user.CreatedAt,
	)
	return mapConstraintError(err)
}

// GetByID returns a user by ID.
func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, userID)
}

// GetByLogin matches a username or a case-insensitive email.
func (r *PGRepo) GetByLogin(ctx context.Context, usernameOrEmail string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR lower(email) = lower($1) LIMIT 1`
	return r.getOne(ctx, query, usernameOrEmail)
}

// Update writes the editable profile fields.
func (r *PGRepo) Update(ctx context.Context, user User) error {
	const query = `
UPDATE users
SET username = $2, email = $3, name = $4, surname = $5, updated_at = now()
WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.Name, user.Surname)
	if err != nil {
		return mapConstraintError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (User, error) {
	var user User
	var consentAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&user.Surname,
		&user.HashedSAID,
		&user.HashedPassword,
		&user.ConsentPOPI,
		&user.ConsentTerms,
		&consentAt,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if consentAt.Valid {
		user.ConsentGivenAt = &consentAt.Time
	}
	return user, nil
}

func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrUsernameTaken
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrEmailTaken
	case strings.Contains(pgErr.ConstraintName, "sa_id"):
		return ErrSAIDTaken
	}
	return err
}

var _ Repo = (*PGRepo)(nil)

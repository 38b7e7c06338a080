package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/internal/shared/auth"
	"resume-analyzer/internal/shared/telemetry"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) (bool, error)
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(userID, username, email string) (string, auth.Claims, error)
}

// TokenRevoker records revoked token IDs.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service contains registration, login and profile logic.
type Service struct {
	Repo    Repo
	Hasher  PasswordHasher
	Tokens  TokenIssuer
	Revoker TokenRevoker
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, hasher PasswordHasher, tokens TokenIssuer, revoker TokenRevoker) *Service {
	return &Service{Repo: repo, Hasher: hasher, Tokens: tokens, Revoker: revoker, now: time.Now}
}

// Register validates the payload and creates an active user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return User{}, toValidationError(err)
	}

	hashed, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock().UTC()
	user := User{
		ID:             uuid.NewString(),
		Username:       in.Username,
		Email:          in.Email,
		Name:           in.Name,
		Surname:        in.Surname,
		HashedSAID:     HashSAID(in.SAIDNumber),
		HashedPassword: hashed,
		ConsentPOPI:    in.ConsentPOPI,
		ConsentTerms:   in.ConsentTerms,
		ConsentGivenAt: &now,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	telemetry.Info("user.registered", map[string]any{"user_id": user.ID})
	return user, nil
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, login, password string) (Token, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return Token{}, ErrInvalidCredentials
	}

	user, err := s.Repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}
	ok, err := s.Hasher.Verify(password, user.HashedPassword)
	if err != nil {
		return Token{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return Token{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return Token{}, ErrInactive
	}

	raw, claims, err := s.Tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}

	telemetry.Info("user.login", map[string]any{"user_id": user.ID})
	return Token{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int64(claims.ExpiresAt.Sub(claims.IssuedAt).Seconds()),
	}, nil
}

// Me returns the active user behind a token.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrInvalidInput
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if !user.IsActive {
		return User{}, ErrInactive
	}
	return user, nil
}

// UpdateProfile applies the provided profile changes. The ID number cannot change.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	upd.normalize()
	if err := upd.Validate(); err != nil {
		return User{}, toValidationError(err)
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if upd.Username != nil {
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Surname != nil {
		user.Surname = *upd.Surname
	}
	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, userID)
}

// Logout revokes the token until it would have expired.
func (s *Service) Logout(ctx context.Context, userID, jti string, exp time.Time) error {
	if jti == "" {
		return ErrInvalidInput
	}
	if s.Revoker == nil {
		return nil
	}
	if err := s.Revoker.Revoke(ctx, jti, exp); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	telemetry.Info("user.logout", map[string]any{"user_id": userID})
	return nil
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

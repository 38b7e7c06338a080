package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer = "resume-analyzer"
	defaultTTL    = 30 * time.Minute
	devSecret     = "dev-secret"
)

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims represents the identity contained in an access token.
type Claims struct {
	JTI       string
	UserID    string
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 access tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager constructs a Manager. A non-positive ttl selects 30 minutes.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{secret: []byte(secret), issuer: defaultIssuer, ttl: ttl, now: time.Now}, nil
}

// ResolveSecret returns the configured secret, or a fixed development secret
// outside production.
func ResolveSecret(secret, env string) (string, error) {
	if strings.TrimSpace(secret) != "" {
		return secret, nil
	}
	if env == "production" {
		return "", ErrMissingSecret
	}
	return devSecret, nil
}

// TTL returns the token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the user and returns it with its claims.
func (m *Manager) Issue(userID, username, email string) (string, Claims, error) {
	if userID == "" {
		return "", Claims{}, errors.New("user id is required")
	}
	now := m.now().UTC().Truncate(time.Second)
	jti := uuid.NewString()
	cl := jwtClaims{
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, toClaims(cl), nil
}

// Parse validates the signature, issuer and expiry of raw.
func (m *Manager) Parse(raw string) (Claims, error) {
	var out jwtClaims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || out.Subject == "" || out.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	return toClaims(out), nil
}

func toClaims(cl jwtClaims) Claims {
	c := Claims{
		JTI:      cl.ID,
		UserID:   cl.Subject,
		Username: cl.Username,
		Email:    cl.Email,
	}
	if cl.IssuedAt != nil {
		c.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		c.ExpiresAt = cl.ExpiresAt.Time
	}
	return c
}

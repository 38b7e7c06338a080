package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/auth"
	"resume-analyzer/internal/shared/server/respond"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	tokenIDKey     = "tokenId"
	tokenExpiryKey = "tokenExpiry"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (auth.Claims, error)
}

// RevocationChecker reports whether a token ID was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth requires a valid, unrevoked bearer token and stores the identity in context.
func Auth(tokens TokenParser, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.JTI)
			if err != nil {
				// Revocation store outages must not lock every user out.
				telemetry.Error("auth.revocation_check_failed", map[string]any{
					"request_id": RequestIDFromContext(c),
					"user_id":    claims.UserID,
					"error":      err,
				})
			} else if isRevoked {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "token has been revoked", nil)
				return
			}
		}

		c.Set(userIDKey, claims.UserID)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.Username != "" {
			c.Set(userNameKey, claims.Username)
		}
		c.Set(tokenIDKey, claims.JTI)
		c.Set(tokenExpiryKey, claims.ExpiresAt)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the username set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// TokenFromContext returns the ID and expiry of the caller's access token.
func TokenFromContext(c *gin.Context) (string, time.Time) {
	jti := stringFromContext(c, tokenIDKey)
	if c == nil {
		return jti, time.Time{}
	}
	val, _ := c.Get(tokenExpiryKey)
	exp, _ := val.(time.Time)
	return jti, exp
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

package middleware

import (
	"errors"
	"strings"

	"github.com/artwall/core/internal/models"
	"github.com/artwall/core/internal/pkg/jwt"
	"github.com/artwall/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyIdentity holds the verified models.Identity for the request.
	ContextKeyIdentity = "identity"
	sessionCookieName  = "session"
)

// Auth returns a middleware that requires a verified session token. The token
// is read from the session cookie set by the identity provider exchange, or
// from a bearer Authorization header.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := verifyRequest(c)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyIdentity, ident)
		c.Next()
	}
}

// OptionalAuth sets the identity if a valid token is present, but does not
// block the request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, err := verifyRequest(c); err == nil {
			c.Set(ContextKeyIdentity, ident)
		}
		c.Next()
	}
}

func verifyRequest(c *gin.Context) (models.Identity, error) {
	token := extractToken(c)
	if token == "" {
		return models.Identity{}, errors.New("token is required")
	}
	claims, err := jwt.Parse(token)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{SubjectID: claims.SubjectID, Email: claims.Email}, nil
}

// CurrentIdentity extracts the verified identity from context.
func CurrentIdentity(c *gin.Context) models.Identity {
	v, _ := c.Get(ContextKeyIdentity)
	ident, _ := v.(models.Identity)
	return ident
}

// IsAuthenticated returns true if the request has a verified session.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentIdentity(c).SubjectID != ""
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	return normalizeToken(c.GetHeader("Authorization"))
}

// normalizeToken trims spaces and strips an optional Bearer prefix.
func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

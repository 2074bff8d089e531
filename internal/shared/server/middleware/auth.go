package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/auth"
	"resume-optimizer/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// Auth requires a valid bearer token outside the public path prefixes and
// records the subject under "userId".
func Auth(verifier TokenVerifier, publicPrefixes ...string) gin.HandlerFunc {
	public := func(p string) bool {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(p, prefix) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || public(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || verifier == nil {
			unauthorized(c, "unauthorized", "missing or invalid token")
			return
		}
		claims, err := verifier.Verify(token)
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			unauthorized(c, "token_expired", "token expired")
			return
		case err != nil:
			unauthorized(c, "unauthorized", "invalid token")
			return
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Next()
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	respond.Error(c, http.StatusUnauthorized, code, message, nil)
}

// UserIDFromContext returns the subject set by Auth.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext returns the email claim set by Auth, if any.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

package auth

import (
	"strings"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// BearerToken extracts the token from "Authorization: Bearer <t>" or, for
// websocket upgrades, the token query parameter.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// Identify resolves the caller's session on every request without
// rejecting anonymous callers.
func Identify(p *identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, p.CurrentUser(c.Request.Context(), BearerToken(c)))
		c.Next()
	}
}

// RequireAuth rejects requests whose session is not ready. It must run
// after Identify.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := SessionFrom(c).Require(); err != nil {
			apperr.Respond(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) identity.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(identity.Session); ok {
			return s
		}
	}
	return identity.AbsentSession()
}

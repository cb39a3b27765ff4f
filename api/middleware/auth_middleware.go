// api/middleware/auth_middleware.go
package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/internal/session"
)

// SessionKey is the gin context key holding the *session.Session of a request.
const SessionKey = "session"

// AuthMiddleware creates a gin middleware that validates the bearer token and
// stores the resulting session in the context.
func AuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(fmt.Errorf("%w: authorization header required", session.ErrUnauthorized))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = c.Error(fmt.Errorf("%w: authorization header format must be Bearer {token}", session.ErrTokenMalformed))
			c.Abort()
			return
		}

		sess, err := sessions.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			customLog.Printf("AuthMiddleware: Token validation failed: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		customLog.Debugf("AuthMiddleware: Token validated for UserID: %s", sess.UserID)
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session stored by AuthMiddleware, or nil.
func SessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wixxidevelop/blue/internal/session"
)

const sessionIDKey = "session_id"

// Session resolves the session id from the signed cookie, starting a new
// session when the cookie is missing, expired or forged
func Session(tokens *session.Tokens, cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sid string
		if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
			if parsed, err := tokens.Parse(raw); err == nil {
				sid = parsed
			}
		}

		if sid == "" {
			sid = session.NewID()
			signed, err := tokens.Issue(sid)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, signed, int(tokens.TTL().Seconds()), "/", "", secure, true)
		}

		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

// GetSessionID returns the session id set by Session
func GetSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(sessionIDKey)
	if !ok {
		return "", false
	}
	sid, ok := v.(string)
	return sid, ok && sid != ""
}

package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CSRFField  = "_csrf"
	CSRFHeader = "X-CSRF-Token"

	csrfSessionKey = "csrf_token"
	csrfContextKey = "csrfToken"
)

// CSRF issues one token per session and rejects state-changing requests
// that do not echo it back in the _csrf field or the X-CSRF-Token header.
func CSRF(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get(csrfSessionKey).(string)
		if token == "" {
			token = uuid.NewString()
			sess.Set(csrfSessionKey, token)
			if err := sess.Save(); err != nil {
				logger.ErrorContext(c.Request.Context(), "failed to save csrf token", slog.String("error", err.Error()))
			}
		}
		c.Set(csrfContextKey, token)

		if safeMethod(c.Request.Method) {
			c.Next()
			return
		}

		sent := c.GetHeader(CSRFHeader)
		if sent == "" {
			sent = c.PostForm(CSRFField)
		}
		if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			logger.WarnContext(c.Request.Context(), "csrf token mismatch",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			)
			RenderError(c, http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRFToken returns the token to embed in rendered forms.
func CSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"shopper/internal/apperror"
	"shopper/internal/models"
)

const (
	// SessionUserKey is the session entry holding the logged-in user's id.
	SessionUserKey = "user_id"

	currentUserKey = "currentUser"
)

type UserLoader interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

// LoadUser resolves the session's user id and exposes the user through
// CurrentUser. A stale id is dropped from the session.
func LoadUser(users UserLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		id, ok := sess.Get(SessionUserKey).(uint)
		if !ok || id == 0 {
			c.Next()
			return
		}

		u, err := users.User(c.Request.Context(), id)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			sess.Delete(SessionUserKey)
			if err := sess.Save(); err != nil {
				logger.WarnContext(c.Request.Context(), "failed to clear stale session", slog.String("error", err.Error()))
			}
		case err != nil:
			logger.ErrorContext(c.Request.Context(), "failed to load session user",
				slog.Uint64("user_id", uint64(id)),
				slog.String("error", err.Error()),
			)
		default:
			SetCurrentUser(c, u)
		}
		c.Next()
	}
}

// RequireLogin redirects anonymous visitors to the login page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusSeeOther, "/auth/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(currentUserKey, u)
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	u, _ := c.Get(currentUserKey)
	user, _ := u.(*models.User)
	return user
}

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopper/internal/apperror"
)

var errorPages = map[int][2]string{
	http.StatusForbidden:           {"Forbidden", "You are not allowed to do that."},
	http.StatusNotFound:            {"Page Not Found!", "The page you are looking for does not exist."},
	http.StatusInternalServerError: {"Some error occurred!", "We're working on fixing this, sorry for the inconvenience!"},
}

// RenderError writes the error page for status.
func RenderError(c *gin.Context, status int) {
	page, ok := errorPages[status]
	if !ok {
		page = errorPages[http.StatusInternalServerError]
	}
	c.HTML(status, "error.tmpl", gin.H{
		"PageTitle": page[0],
		"Heading":   page[0],
		"Message":   page[1],
		"Path":      c.Request.URL.Path,
		"User":      CurrentUser(c),
		"CSRFToken": CSRFToken(c),
	})
}

// StatusOf maps an error kind to the status of its error page.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBoundary renders the page for the last error a handler attached with
// c.Error, unless the handler already wrote a response. Only the status and
// a fixed message reach the client.
func ErrorBoundary(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		status := StatusOf(last.Err)
		attrs := []any{
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.String("error", last.Err.Error()),
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request failed", attrs...)
		} else {
			logger.InfoContext(c.Request.Context(), "request rejected", attrs...)
		}

		if !c.Writer.Written() {
			RenderError(c, status)
		}
	}
}

// Recover turns a panic into the 500 page.
func Recover(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			slog.String("path", c.Request.URL.Path),
			slog.String("panic", fmt.Sprint(rec)),
		)
		if !c.Writer.Written() {
			RenderError(c, http.StatusInternalServerError)
		}
		c.Abort()
	})
}

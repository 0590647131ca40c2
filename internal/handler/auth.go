package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"shopper/internal/middleware"
	"shopper/internal/service"
)

type AuthHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

func NewAuthHandler(accounts Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// HTTP: GET /auth/signup
func (h *AuthHandler) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "auth_signup.tmpl", page(c, "Signup", ViewData{"Form": signupForm{}}))
}

// Signup creates the account and sends the user to the login page.
//
// HTTP: POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(fmt.Errorf("binding signup form: %w", err))
		return
	}

	_, err := h.accounts.Signup(c.Request.Context(), form.Email, form.Password, form.ConfirmPassword)
	if verr, ok := asValidation(err); ok {
		c.HTML(http.StatusUnprocessableEntity, "auth_signup.tmpl", page(c, "Signup", ViewData{
			"Form":   signupForm{Email: form.Email},
			"Errors": verr,
		}))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	redirect(c, "/auth/login")
}

// HTTP: GET /auth/login
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "auth_login.tmpl", page(c, "Login", ViewData{"Form": loginForm{}}))
}

// Login stores the user id in the session.
//
// HTTP: POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(fmt.Errorf("binding login form: %w", err))
		return
	}

	u, err := h.accounts.Login(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, service.ErrBadCredentials) {
		h.logger.InfoContext(c.Request.Context(), "login rejected", slog.String("client_ip", c.ClientIP()))
		c.HTML(http.StatusUnprocessableEntity, "auth_login.tmpl", page(c, "Login", ViewData{
			"Form":    loginForm{Email: form.Email},
			"Message": "Invalid email or password.",
		}))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserKey, u.ID)
	if err := sess.Save(); err != nil {
		_ = c.Error(fmt.Errorf("saving session: %w", err))
		return
	}
	redirect(c, "/")
}

// Logout drops the whole session, CSRF token included.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		_ = c.Error(fmt.Errorf("clearing session: %w", err))
		return
	}
	redirect(c, "/")
}

// Package handler holds the gin handlers of the storefront, the account
// pages and the admin catalog.
//
// Handlers bind and check the request, call a service and pick the response:
// a redirect, a re-rendered form (422) or an error attached with c.Error for
// the error boundary to render.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopper/internal/apperror"
	"shopper/internal/middleware"
	"shopper/internal/models"
	"shopper/internal/service"
)

type ViewData map[string]any

// Catalog is the product workflow the admin and shop pages drive.
type Catalog interface {
	ListOwned(ctx context.Context, owner *models.User) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, owner *models.User, in service.CreateInput) (*models.Product, error)
	Update(ctx context.Context, actor *models.User, in service.UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
}

type Accounts interface {
	Signup(ctx context.Context, email, password, confirm string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

var (
	_ Catalog  = (*service.Catalog)(nil)
	_ Accounts = (*service.Auth)(nil)
)

// page fills the values every layout needs.
func page(c *gin.Context, title string, data ViewData) ViewData {
	if data == nil {
		data = ViewData{}
	}
	data["PageTitle"] = title
	data["Path"] = c.Request.URL.Path
	data["User"] = middleware.CurrentUser(c)
	data["CSRFToken"] = middleware.CSRFToken(c)
	return data
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusSeeOther, to)
}

func asValidation(err error) (*apperror.ValidationError, bool) {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

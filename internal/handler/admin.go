package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopper/internal/apperror"
	"shopper/internal/imagestore"
	"shopper/internal/middleware"
	"shopper/internal/service"
)

const listingPath = "/admin/all-products"

// AdminHandler serves the /admin pages. Every route sits behind
// middleware.RequireLogin.
type AdminHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewAdminHandler(catalog Catalog, logger *slog.Logger) *AdminHandler {
	registerValidators()
	return &AdminHandler{catalog: catalog, logger: logger}
}

// Products lists the current user's products.
//
// HTTP: GET /admin/all-products
func (h *AdminHandler) Products(c *gin.Context) {
	items, err := h.catalog.ListOwned(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.HTML(http.StatusOK, "admin_products.tmpl", page(c, "Admin Products", ViewData{"Products": items}))
}

// AddForm renders an empty product form.
//
// HTTP: GET /admin/add-product
func (h *AdminHandler) AddForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, false, productForm{}, nil)
}

// Add creates a product from a multipart form. A missing or non-image file
// is reported before the other fields are looked at.
//
// HTTP: POST /admin/add-product
func (h *AdminHandler) Add(c *gin.Context) {
	var form productForm
	verr, err := bindForm(c, &form)
	if err != nil {
		_ = c.Error(fmt.Errorf("binding product form: %w", err))
		return
	}

	img, file, err := readImage(c, "image")
	if err != nil && !errors.Is(err, imagestore.ErrUnsupportedFormat) {
		_ = c.Error(err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	if img != nil && !verr.Empty() {
		h.renderForm(c, http.StatusUnprocessableEntity, false, form, verr)
		return
	}

	_, err = h.catalog.Create(c.Request.Context(), middleware.CurrentUser(c), service.CreateInput{
		ProductInput: form.input(),
		Image:        img,
	})
	if err != nil {
		h.fail(c, err, false, form)
		return
	}
	redirect(c, listingPath)
}

// EditForm renders the form pre-filled with the stored product.
//
// HTTP: GET /admin/edit-product/:itemId
func (h *AdminHandler) EditForm(c *gin.Context) {
	id, err := parseID(c.Param("itemId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.renderForm(c, http.StatusOK, true, productForm{
		ItemID:      c.Param("itemId"),
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
	}, nil)
}

// Edit applies the submitted fields and an optional replacement image.
// Someone else's product sends the user back to the shop.
//
// HTTP: POST /admin/edit-product
func (h *AdminHandler) Edit(c *gin.Context) {
	var form productForm
	verr, err := bindForm(c, &form)
	if err != nil {
		_ = c.Error(fmt.Errorf("binding product form: %w", err))
		return
	}

	img, file, err := readImage(c, "image")
	switch {
	case errors.Is(err, imagestore.ErrUnsupportedFormat):
		if verr == nil {
			verr = &apperror.ValidationError{}
		}
		verr.Add("image", imageRequired)
	case err != nil:
		_ = c.Error(err)
		return
	}
	if file != nil {
		defer file.Close()
	}
	if !verr.Empty() {
		h.renderForm(c, http.StatusUnprocessableEntity, true, form, verr)
		return
	}

	id, err := parseID(form.ItemID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	_, err = h.catalog.Update(c.Request.Context(), middleware.CurrentUser(c), service.UpdateInput{
		ID:           id,
		ProductInput: form.input(),
		Image:        img,
	})
	if err != nil {
		h.fail(c, err, true, form)
		return
	}
	redirect(c, listingPath)
}

// Delete removes one of the current user's products.
//
// HTTP: POST /admin/delete-product
func (h *AdminHandler) Delete(c *gin.Context) {
	var form deleteForm
	verr, err := bindForm(c, &form)
	if err != nil {
		_ = c.Error(fmt.Errorf("binding delete form: %w", err))
		return
	}
	if !verr.Empty() {
		_ = c.Error(apperror.NotFound("product", form.ItemID))
		return
	}
	id, err := parseID(form.ItemID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.fail(c, err, false, productForm{})
		return
	}
	redirect(c, listingPath)
}

// fail maps a catalog error to the response: a 422 form for field errors,
// the shop for ownership violations and the error boundary for the rest.
func (h *AdminHandler) fail(c *gin.Context, err error, editing bool, form productForm) {
	if verr, ok := asValidation(err); ok {
		h.renderForm(c, http.StatusUnprocessableEntity, editing, form, verr)
		return
	}
	if errors.Is(err, apperror.ErrForbidden) {
		redirect(c, "/")
		return
	}
	_ = c.Error(err)
}

func (h *AdminHandler) renderForm(c *gin.Context, status int, editing bool, form productForm, verr *apperror.ValidationError) {
	title := "Add Product"
	if editing {
		title = "Edit Product"
	}
	c.HTML(status, "admin_form.tmpl", page(c, title, ViewData{
		"Editing": editing,
		"Form":    form,
		"Errors":  verr,
	}))
}

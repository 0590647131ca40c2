package views

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopper/internal/apperror"
	"shopper/internal/models"
)

func TestParse_Embedded(t *testing.T) {
	tmpl, err := Parse("")
	require.NoError(t, err)

	for _, name := range []string{
		"shop_index.tmpl", "admin_products.tmpl", "admin_form.tmpl",
		"auth_login.tmpl", "auth_signup.tmpl", "error.tmpl",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestParse_MissingDir(t *testing.T) {
	_, err := Parse(t.TempDir())
	assert.Error(t, err)
}

func TestAdminForm_FieldErrors(t *testing.T) {
	tmpl, err := Parse("")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "admin_form.tmpl", map[string]any{
		"PageTitle": "Add Product",
		"Errors":    apperror.ValidationFailed("image", "Please upload an image."),
		"Form":      map[string]string{"Title": "Lamp", "Price": "25.50", "Description": "desk lamp"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Please upload an image.")
	assert.Contains(t, out, `value="Lamp"`)
	assert.Contains(t, out, `action="/admin/add-product"`)
}

func TestShopIndex_Price(t *testing.T) {
	tmpl, err := Parse("")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "shop_index.tmpl", map[string]any{
		"Products": []models.Product{{Title: "Lamp", Price: decimal.RequireFromString("25.5")}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "$25.50")
}

func TestFieldError(t *testing.T) {
	assert.Equal(t, "", fieldError(nil, "title"))
	assert.Equal(t, "", fieldError("not an error", "title"))
	assert.Equal(t, "bad", fieldError(apperror.ValidationFailed("title", "bad"), "title"))
}

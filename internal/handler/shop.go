package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ShopHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewShopHandler(catalog Catalog, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{catalog: catalog, logger: logger}
}

// Index lists every product.
//
// HTTP: GET /
func (h *ShopHandler) Index(c *gin.Context) {
	items, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.HTML(http.StatusOK, "shop_index.tmpl", page(c, "Shop", ViewData{"Products": items}))
}

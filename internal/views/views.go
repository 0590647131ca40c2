// Package views parses the HTML templates rendered by gin.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"

	"shopper/internal/apperror"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Parse loads every *.tmpl from dir, or the embedded copies when dir is "".
// Templates are addressed by file name, e.g. "admin_products.tmpl".
func Parse(dir string) (*template.Template, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	t, err := template.New("").Funcs(Funcs()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("views: parsing templates: %w", err)
	}
	return t, nil
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"price":      func(d decimal.Decimal) string { return d.StringFixed(2) },
		"fieldError": fieldError,
	}
}

func fieldError(errs any, field string) string {
	verr, ok := errs.(*apperror.ValidationError)
	if !ok {
		return ""
	}
	return verr.Message(field)
}

package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"shopper/internal/apperror"
	"shopper/internal/imagestore"
	"shopper/internal/service"
)

const imageRequired = "Please upload a valid image of either png or jpeg format!"

// productForm is the bound body of add-product and edit-product.
type productForm struct {
	ItemID      string `form:"itemId"`
	Title       string `form:"title" binding:"notblank,max=120"`
	Description string `form:"description" binding:"notblank"`
	Price       string `form:"price" binding:"price"`
}

func (f productForm) input() service.ProductInput {
	price, _ := decimal.NewFromString(strings.TrimSpace(f.Price))
	return service.ProductInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Price:       price,
	}
}

type deleteForm struct {
	ItemID string `form:"itemId" binding:"required"`
}

type signupForm struct {
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

var fieldMessages = map[string]string{
	"title.notblank":       "Title is required.",
	"title.max":            fmt.Sprintf("Title must be %d characters or less.", service.MaxTitleLength),
	"description.notblank": "Description is required.",
	"itemId.required":      "Item id is required.",
}

var registerOnce sync.Once

// registerValidators adds the form rules to gin's validator and reports
// fields by their form name.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
			return priceMessage(fl.Field().String()) == ""
		})
	})
}

// bindForm binds the request body into dst. Rule violations come back as a
// ValidationError; anything else is a malformed request.
func bindForm(c *gin.Context, dst any) (*apperror.ValidationError, error) {
	err := c.ShouldBind(dst)
	if err == nil {
		return nil, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ValidationFailed("image", fmt.Sprintf("The upload must be smaller than %d MB.", tooLarge.Limit>>20)), nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := &apperror.ValidationError{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if fe.Tag() == "price" {
			msg, ok = priceMessage(fmt.Sprint(fe.Value())), true
		}
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		out.Add(fe.Field(), msg)
	}
	return out, nil
}

// priceMessage checks a submitted price string against the catalog rules.
func priceMessage(raw string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "Price must be a positive number."
	}
	return service.PriceProblem(d)
}

// readImage returns the attached image when it is a JPEG or PNG. A missing
// part yields (nil, nil); a disallowed encoding yields ErrUnsupportedFormat.
// The caller closes the returned file.
func readImage(c *gin.Context, field string) (*imagestore.Upload, multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh.Size == 0 {
		return nil, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening upload: %w", err)
	}
	ct, err := imagestore.Detect(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return &imagestore.Upload{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// parseID turns a form or path id into a product id. Unparsable ids are
// reported as not found.
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("product", raw)
	}
	return uint(id), nil
}

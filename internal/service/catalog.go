// Package service holds the catalog and account workflows.
//
// Services take validated inputs, never HTTP types, and return apperror kinds.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"shopper/internal/apperror"
	"shopper/internal/cleanup"
	"shopper/internal/imagestore"
	"shopper/internal/metrics"
	"shopper/internal/models"
	"shopper/internal/repository"
)

const (
	MaxTitleLength = 120
	// PriceDecimals matches the numeric(12,2) price column.
	PriceDecimals = 2
)

// MaxPrice is the first price numeric(12,2) cannot hold.
var MaxPrice = decimal.New(1, 10)

// PriceProblem returns the user-facing reason a price cannot be stored, or
// "" when it is acceptable.
func PriceProblem(d decimal.Decimal) string {
	switch {
	case !d.IsPositive():
		return "Price must be a positive number."
	case !d.Equal(d.Round(PriceDecimals)):
		return fmt.Sprintf("Price can have at most %d decimal places.", PriceDecimals)
	case d.GreaterThanOrEqual(MaxPrice):
		return "Price must be less than " + MaxPrice.String() + "."
	}
	return ""
}

// ProductInput carries the editable fields of a product form.
type ProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
}

// Validate applies the field rules shared by create and update.
func (in ProductInput) Validate() *apperror.ValidationError {
	verr := &apperror.ValidationError{}
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		verr.Add("title", "Title is required.")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		verr.Add("title", fmt.Sprintf("Title must be %d characters or less.", MaxTitleLength))
	}
	if strings.TrimSpace(in.Description) == "" {
		verr.Add("description", "Description is required.")
	}
	if msg := PriceProblem(in.Price); msg != "" {
		verr.Add("price", msg)
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

type CreateInput struct {
	ProductInput
	Image *imagestore.Upload // nil when no acceptable image was attached
}

type UpdateInput struct {
	ID uint
	ProductInput
	Image *imagestore.Upload // optional replacement
}

// CanMutate reports whether user may change or delete p.
func CanMutate(user *models.User, p *models.Product) bool {
	return user != nil && p != nil && p.OwnedBy(user.ID)
}

type Catalog struct {
	products repository.ProductRepository
	images   imagestore.Store
	cleanup  cleanup.Queue
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewCatalog(
	products repository.ProductRepository,
	images imagestore.Store,
	queue cleanup.Queue,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Catalog {
	return &Catalog{
		products: products,
		images:   images,
		cleanup:  queue,
		metrics:  m,
		logger:   logger,
	}
}

// ListOwned returns every product created by owner.
func (s *Catalog) ListOwned(ctx context.Context, owner *models.User) ([]models.Product, error) {
	items, err := s.products.ListByOwner(ctx, owner.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list products",
			slog.Uint64("owner_id", uint64(owner.ID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return items, nil
}

// ListAll backs the storefront.
func (s *Catalog) ListAll(ctx context.Context) ([]models.Product, error) {
	items, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing storefront: %w", err)
	}
	return items, nil
}

// Get loads a product for the edit form. Ownership is enforced on submit.
func (s *Catalog) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Create stores the image and persists a product owned by owner. A missing
// image is reported before any field rule runs.
func (s *Catalog) Create(ctx context.Context, owner *models.User, in CreateInput) (p *models.Product, err error) {
	defer func() { s.metrics.Op("create", err) }()

	if in.Image == nil {
		return nil, apperror.ValidationFailed("image", "Please upload a valid image of either png or jpeg format!")
	}
	if verr := in.Validate(); verr != nil {
		return nil, verr
	}

	img, err := s.images.Store(ctx, in.Image)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store image", slog.String("error", err.Error()))
		return nil, apperror.Upload(err)
	}

	p = &models.Product{
		OwnerID:     owner.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		ImageURL:    img.URL,
		ImageHandle: img.Handle,
	}
	if err := s.products.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to create product",
			slog.String("title", p.Title),
			slog.String("error", err.Error()),
		)
		s.discard(ctx, img.Handle)
		return nil, fmt.Errorf("creating product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Uint64("id", uint64(p.ID)),
		slog.Uint64("owner_id", uint64(owner.ID)),
	)
	return p, nil
}

// Update applies in to the product when actor owns it. A replacement image
// is stored only after the ownership check passes.
func (s *Catalog) Update(ctx context.Context, actor *models.User, in UpdateInput) (p *models.Product, err error) {
	defer func() { s.metrics.Op("update", err) }()

	if verr := in.Validate(); verr != nil {
		return nil, verr
	}

	p, err = s.products.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, p) {
		s.violation(ctx, "update", actor, p)
		return nil, apperror.OwnershipViolation("product", idString(p.ID))
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price

	var oldHandle string
	if in.Image != nil {
		img, err := s.images.Store(ctx, in.Image)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to store replacement image", slog.String("error", err.Error()))
			return nil, apperror.Upload(err)
		}
		oldHandle = p.ImageHandle
		p.ImageURL = img.URL
		p.ImageHandle = img.Handle
	}

	if err := s.products.Save(ctx, p); err != nil {
		if in.Image != nil {
			s.discard(ctx, p.ImageHandle)
		}
		return nil, fmt.Errorf("updating product: %w", err)
	}
	if oldHandle != "" {
		s.discard(ctx, oldHandle)
	}

	s.logger.InfoContext(ctx, "product updated", slog.Uint64("id", uint64(p.ID)))
	return p, nil
}

// Delete removes the product and queues its image for deletion. A missing
// product is ErrNotFound; someone else's product is ErrForbidden and stays
// untouched together with its image.
func (s *Catalog) Delete(ctx context.Context, actor *models.User, id uint) (err error) {
	defer func() { s.metrics.Op("delete", err) }()

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutate(actor, p) {
		s.violation(ctx, "delete", actor, p)
		return apperror.OwnershipViolation("product", idString(id))
	}

	n, err := s.products.DeleteOwned(ctx, id, actor.ID)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n == 0 {
		// removed between the lookup and the delete
		return apperror.NotFound("product", idString(id))
	}

	s.discard(ctx, p.ImageHandle)
	s.logger.InfoContext(ctx, "product deleted", slog.Uint64("id", uint64(id)))
	return nil
}

// discard hands an unreferenced image to the cleanup queue. Failures are
// logged; they never fail the request.
func (s *Catalog) discard(ctx context.Context, handle string) {
	if err := s.cleanup.Enqueue(ctx, handle); err != nil && !errors.Is(err, cleanup.ErrQueueFull) {
		s.logger.ErrorContext(ctx, "failed to enqueue image cleanup",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Catalog) violation(ctx context.Context, op string, actor *models.User, p *models.Product) {
	s.metrics.OwnershipViolations.WithLabelValues(op).Inc()
	var actorID uint
	if actor != nil {
		actorID = actor.ID
	}
	s.logger.WarnContext(ctx, "ownership violation",
		slog.String("operation", op),
		slog.Uint64("product_id", uint64(p.ID)),
		slog.Uint64("owner_id", uint64(p.OwnerID)),
		slog.Uint64("actor_id", uint64(actorID)),
	)
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

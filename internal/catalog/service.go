package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/matthieukhl/freshmart/internal/catalog")

// Repository is the persistence the catalog needs; *Store satisfies it
type Repository interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, f Filter, sort listing.Sort, page listing.Page) ([]models.Product, int, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// ProductInput holds the fields of a new product
type ProductInput struct {
	Name        string  `json:"name" form:"name" yaml:"name" binding:"required"`
	Description string  `json:"description" form:"description" yaml:"description" binding:"required"`
	Price       float64 `json:"price" form:"price" yaml:"price" binding:"gte=0"`
	Category    string  `json:"category" form:"category" yaml:"category" binding:"required"`
	Unit        string  `json:"unit" form:"unit" yaml:"unit" binding:"required,unit"`
	MaxQuantity float64 `json:"maxQuantity" form:"maxQuantity" yaml:"maxQuantity" binding:"gte=1"`
	ImageURL    string  `json:"imageUrl" form:"imageUrl" yaml:"imageUrl" binding:"omitempty,url"`
}

// ProductPatch holds the fields to change; nil leaves a field untouched
type ProductPatch struct {
	Name        *string  `json:"name" form:"name"`
	Description *string  `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price" binding:"omitempty,gte=0"`
	Category    *string  `json:"category" form:"category"`
	Unit        *string  `json:"unit" form:"unit" binding:"omitempty,unit"`
	MaxQuantity *float64 `json:"maxQuantity" form:"maxQuantity" binding:"omitempty,gte=1"`
	InStock     *bool    `json:"inStock" form:"inStock"`
	ImageURL    *string  `json:"imageUrl" form:"imageUrl" binding:"omitempty,url"`
}

// ListParams are the raw query parameters of a product listing
type ListParams struct {
	Category string
	Search   string
	InStock  string
	Sort     string
	Page     string
	Limit    string
}

type Service struct {
	repo   Repository
	images types.ImageStore
	logger *slog.Logger
}

func NewService(repo Repository, images types.ImageStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		images: images,
		logger: logging.WithComponent(logger, "catalog"),
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.Get(ctx, id)
}

// List filters, sorts and paginates the catalog
func (s *Service) List(ctx context.Context, params ListParams) (listing.Result[models.Product], error) {
	ctx, span := tracer.Start(ctx, "catalog.List")
	defer span.End()

	sort, err := listing.ParseSort(params.Sort, SortFields, DefaultSort)
	if err != nil {
		return listing.Result[models.Product]{}, err
	}
	page, err := listing.ParsePage(params.Page, params.Limit)
	if err != nil {
		return listing.Result[models.Product]{}, err
	}

	filter := Filter{
		Category: strings.TrimSpace(params.Category),
		Search:   strings.TrimSpace(params.Search),
	}
	if params.InStock != "" {
		inStock, err := strconv.ParseBool(params.InStock)
		if err != nil {
			return listing.Result[models.Product]{}, types.Validation("catalog.List", "inStock must be true or false",
				types.FieldError{Field: "inStock", Message: "must be a boolean"})
		}
		filter.InStock = &inStock
	}

	products, total, err := s.repo.List(ctx, filter, sort, page)
	if err != nil {
		return listing.Result[models.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}

	span.SetAttributes(attribute.Int("catalog.total", total))
	return listing.NewResult(products, total, page), nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Create stores a new in-stock product. The image comes either from an
// uploaded file or from input.ImageURL; one of them is required.
func (s *Service) Create(ctx context.Context, input ProductInput, upload *types.ImageSource) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "catalog.Create")
	defer span.End()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		image *types.StoredImage
		err   error
	)
	switch {
	case upload != nil:
		image, err = s.images.Upload(ctx, *upload)
	case input.ImageURL != "":
		image, err = s.images.UploadFromURL(ctx, input.ImageURL)
	default:
		return nil, types.Validation("catalog.Create", "Product image is required",
			types.FieldError{Field: "image", Message: "Product image is required"})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Image:       image.URL,
		ImageID:     image.PublicID,
		Category:    strings.TrimSpace(input.Category),
		Unit:        input.Unit,
		InStock:     true,
		MaxQuantity: input.MaxQuantity,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.discardImage(ctx, image.PublicID)
		return nil, err
	}

	s.logger.Info("Product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// Update applies patch to the product. A new image replaces the old one,
// which is removed from the image store.
func (s *Service) Update(ctx context.Context, id int64, patch ProductPatch, upload *types.ImageSource) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "catalog.Update")
	defer span.End()

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString(&product.Name, patch.Name)
	applyString(&product.Description, patch.Description)
	applyString(&product.Category, patch.Category)
	applyString(&product.Unit, patch.Unit)
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.MaxQuantity != nil {
		product.MaxQuantity = *patch.MaxQuantity
	}
	if patch.InStock != nil {
		product.InStock = *patch.InStock
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}

	var replaced *types.StoredImage
	switch {
	case upload != nil:
		replaced, err = s.images.Upload(ctx, *upload)
	case patch.ImageURL != nil && *patch.ImageURL != "" && *patch.ImageURL != product.Image:
		replaced, err = s.images.UploadFromURL(ctx, *patch.ImageURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	oldImageID := product.ImageID
	if replaced != nil {
		product.Image = replaced.URL
		product.ImageID = replaced.PublicID
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if replaced != nil {
			s.discardImage(ctx, replaced.PublicID)
		}
		return nil, err
	}

	if replaced != nil {
		s.discardImage(ctx, oldImageID)
	}

	s.logger.Info("Product updated", "product_id", product.ID)
	return product, nil
}

// Delete removes the product and its hosted image. Orders keep their snapshots.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "catalog.Delete")
	defer span.End()

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.discardImage(ctx, product.ImageID)
	s.logger.Info("Product deleted", "product_id", id)
	return nil
}

// Import creates the given products, skipping names that already exist.
// It returns how many products were created.
func (s *Service) Import(ctx context.Context, inputs []ProductInput) (int, error) {
	created := 0
	for _, input := range inputs {
		exists, err := s.repo.ExistsByName(ctx, strings.TrimSpace(input.Name))
		if err != nil {
			return created, fmt.Errorf("failed to check product %q: %w", input.Name, err)
		}
		if exists {
			s.logger.Debug("Skipping existing product", "name", input.Name)
			continue
		}

		if _, err := s.Create(ctx, input, nil); err != nil {
			return created, fmt.Errorf("failed to import product %q: %w", input.Name, err)
		}
		created++
	}
	return created, nil
}

// discardImage is best effort: a leftover hosted image is not worth failing the request
func (s *Service) discardImage(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.logger.Warn("Failed to delete product image", "image_id", publicID, "error", err)
	}
}

func applyString(dst *string, src *string) {
	if src != nil && strings.TrimSpace(*src) != "" {
		*dst = strings.TrimSpace(*src)
	}
}

func validateInput(input ProductInput) error {
	var fields []types.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, types.FieldError{Field: "name", Message: "Name is required"})
	}
	if strings.TrimSpace(input.Description) == "" {
		fields = append(fields, types.FieldError{Field: "description", Message: "Description is required"})
	}
	if strings.TrimSpace(input.Category) == "" {
		fields = append(fields, types.FieldError{Field: "category", Message: "Category is required"})
	}
	fields = append(fields, checkNumbers(input.Price, input.Unit, input.MaxQuantity)...)

	if len(fields) > 0 {
		return types.Validation("catalog.Create", "Invalid product", fields...)
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if fields := checkNumbers(p.Price, p.Unit, p.MaxQuantity); len(fields) > 0 {
		return types.Validation("catalog.Update", "Invalid product", fields...)
	}
	return nil
}

func checkNumbers(price float64, unit string, maxQuantity float64) []types.FieldError {
	var fields []types.FieldError
	if price < 0 {
		fields = append(fields, types.FieldError{Field: "price", Message: "Price must be a positive number"})
	}
	if !models.IsValidUnit(unit) {
		fields = append(fields, types.FieldError{Field: "unit", Message: "Unit is required"})
	}
	if maxQuantity < 1 {
		fields = append(fields, types.FieldError{Field: "maxQuantity", Message: "Maximum quantity must be a positive number"})
	}
	return fields
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matthieukhl/freshmart/internal/database"
	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/matthieukhl/freshmart/internal/orders")

// Repository is the persistence the order service needs; *Store satisfies it
type Repository interface {
	LatestFinder
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, f Filter, sort listing.Sort, page listing.Page) ([]models.Order, int, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// ProductFinder looks up the live product an item refers to
type ProductFinder interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
}

// ItemInput is one cart line
type ItemInput struct {
	ProductID int64   `json:"product" binding:"required"`
	Quantity  float64 `json:"quantity"`
}

// CreateInput is an order as submitted by a customer. CustomerName comes
// from the customer session, never from the request body.
type CreateInput struct {
	CustomerName string      `json:"-"`
	Phone        string      `json:"phone"`
	Email        string      `json:"email" binding:"omitempty,email"`
	Items        []ItemInput `json:"items" binding:"dive"`
	Subtotal     *float64    `json:"subtotal"`
	Total        *float64    `json:"total"`
}

// ListParams are the raw query parameters of an order listing
type ListParams struct {
	Status string
	Sort   string
	Page   string
	Limit  string
}

// Options tune order intake
type Options struct {
	// TrustClientTotal keeps a non-zero client total instead of the computed one
	TrustClientTotal bool
	// NumberRetries is how many times a duplicate order number is re-allocated
	NumberRetries int
	// Location decides the calendar day of an order number
	Location *time.Location
}

type Service struct {
	repo      Repository
	products  ProductFinder
	allocator Allocator
	opts      Options
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo Repository, products ProductFinder, allocator Allocator, opts Options, logger *slog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NumberRetries < 0 {
		opts.NumberRetries = 0
	}
	return &Service{
		repo:      repo,
		products:  products,
		allocator: allocator,
		opts:      opts,
		now:       time.Now,
		logger:    logging.WithComponent(logger, "orders"),
	}
}

// Create validates the cart against the live catalog, snapshots the items
// and stores a pending order under a fresh order number. Nothing is written
// unless every item passes.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.Create")
	defer span.End()

	if strings.TrimSpace(input.Phone) == "" {
		return nil, types.Validation("orders.Create", "Phone number is required",
			types.FieldError{Field: "phone", Message: "Phone number is required"})
	}
	if len(input.Items) == 0 {
		return nil, types.Validation("orders.Create", "Order must contain at least one item",
			types.FieldError{Field: "items", Message: "Order must contain at least one item"})
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	computed := decimal.Zero
	for _, line := range input.Items {
		item, err := s.snapshotItem(ctx, line)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		items = append(items, item)
		computed = computed.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromFloat(item.Quantity)))
	}

	total, err := s.resolveTotal(computed, input.Total)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName: input.CustomerName,
		Phone:        strings.TrimSpace(input.Phone),
		Email:        strings.TrimSpace(input.Email),
		Items:        items,
		TotalAmount:  total,
		Status:       models.OrderStatusPending,
	}

	if err := s.insertWithNumber(ctx, order); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.number", order.OrderNumber),
		attribute.Int("order.items", len(order.Items)),
	)
	s.logger.Info("Order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"items", len(order.Items),
		"total", order.TotalAmount)
	return order, nil
}

func (s *Service) snapshotItem(ctx context.Context, line ItemInput) (models.OrderItem, error) {
	product, err := s.products.Get(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return models.OrderItem{}, types.NotFound("orders.Create",
				fmt.Sprintf("Product with ID %d not found", line.ProductID))
		}
		return models.OrderItem{}, fmt.Errorf("failed to get product %d: %w", line.ProductID, err)
	}

	if !product.InStock {
		return models.OrderItem{}, types.BusinessRule("orders.Create", types.ReasonOutOfStock,
			fmt.Sprintf("Product %s is out of stock", product.Name))
	}

	// order_items.quantity holds two decimals; the line is priced at the
	// stored value so the snapshot and the total agree
	quantity := decimal.NewFromFloat(line.Quantity).Round(2)
	if quantity.LessThan(minQuantity) || quantity.GreaterThan(decimal.NewFromFloat(product.MaxQuantity)) {
		return models.OrderItem{}, types.BusinessRule("orders.Create", types.ReasonInvalidQuantity,
			fmt.Sprintf("Invalid quantity for %s. Maximum allowed: %s", product.Name, formatQuantity(product.MaxQuantity)))
	}

	return models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity.InexactFloat64(),
		Unit:      product.Unit,
		Image:     product.Image,
	}, nil
}

// resolveTotal applies the total policy: a present, non-zero client total
// wins when TrustClientTotal is on, otherwise the computed sum is used
func (s *Service) resolveTotal(computed decimal.Decimal, client *float64) (float64, error) {
	if client != nil && *client < 0 {
		return 0, types.Validation("orders.Create", "Total must not be negative",
			types.FieldError{Field: "total", Message: "must not be negative"})
	}
	if s.opts.TrustClientTotal && client != nil && *client != 0 {
		return *client, nil
	}
	return computed.Round(2).InexactFloat64(), nil
}

// insertWithNumber allocates an order number and inserts the order,
// re-allocating on a duplicate number up to NumberRetries times
func (s *Service) insertWithNumber(ctx context.Context, order *models.Order) error {
	day := s.now().In(s.opts.Location)

	for attempt := 0; ; attempt++ {
		number, err := s.allocator.Next(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}
		order.OrderNumber = number

		err = s.repo.Insert(ctx, order)
		if err == nil {
			return nil
		}
		if !database.IsDuplicateKey(err) || attempt >= s.opts.NumberRetries {
			return err
		}
		s.logger.Warn("Order number already taken, retrying",
			"order_number", number,
			"attempt", attempt+1)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.repo.Get(ctx, id)
}

// List filters by status, sorts and paginates orders
func (s *Service) List(ctx context.Context, params ListParams) (listing.Result[models.Order], error) {
	ctx, span := tracer.Start(ctx, "orders.List")
	defer span.End()

	status := strings.TrimSpace(params.Status)
	if status != "" && !models.IsValidOrderStatus(status) {
		return listing.Result[models.Order]{}, types.Validation("orders.List", "Invalid status",
			types.FieldError{Field: "status", Message: "unknown order status"})
	}

	sort, err := listing.ParseSort(params.Sort, SortFields, DefaultSort)
	if err != nil {
		return listing.Result[models.Order]{}, err
	}
	page, err := listing.ParsePage(params.Page, params.Limit)
	if err != nil {
		return listing.Result[models.Order]{}, err
	}

	orders, total, err := s.repo.List(ctx, Filter{Status: status}, sort, page)
	if err != nil {
		return listing.Result[models.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return listing.NewResult(orders, total, page), nil
}

// UpdateStatus moves an order to any of the known statuses
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.UpdateStatus")
	defer span.End()

	if !models.IsValidOrderStatus(status) {
		return nil, types.BusinessRule("orders.UpdateStatus", types.ReasonInvalidStatus, "Invalid status")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated", "order_id", id, "status", status)
	return s.repo.Get(ctx, id)
}

// minQuantity is the smallest orderable amount of any unit
var minQuantity = decimal.RequireFromString("0.1")

func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}

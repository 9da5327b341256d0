package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/internal/catalog"
	"github.com/angelmondragon/backhouse/internal/recipes"
	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/db"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
	"github.com/angelmondragon/backhouse/pkg/logger"
	"github.com/angelmondragon/backhouse/pkg/types"
	"github.com/angelmondragon/backhouse/pkg/validate"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order operations: opening tickets, reading them and
// appending items after the fact.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	AddItems(ctx context.Context, orderID uuid.UUID, input AddItemsInput) (*Detail, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  *catalog.Service
	recipes  *recipes.Service
	settings config.SettingsConfig
	logg     *logger.Logger
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo     Repository
	DB       txRunner
	Catalog  *catalog.Service
	Recipes  *recipes.Service
	Settings config.SettingsConfig
	Logger   *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Recipes == nil {
		return nil, fmt.Errorf("recipe resolver required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.DB,
		catalog:  params.Catalog,
		recipes:  params.Recipes,
		settings: params.Settings,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.DiscountPercentage.IsNegative() || input.DiscountPercentage.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			number, err := repo.NextOrderNumber(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
			}
			order = &models.Order{
				OrderNumber:        number,
				CustomerName:       input.CustomerName,
				TableLabel:         input.TableLabel,
				Notes:              input.Notes,
				DiscountPercentage: input.DiscountPercentage,
				Status:             enums.OrderStatusPending,
				PaymentStatus:      enums.PaymentStatusUnpaid,
				PaymentMethod:      input.PaymentMethod,
			}
			return repo.CreateOrder(ctx, order)
		})
		if err == nil {
			return order, nil
		}
		// two tills can read the same MAX(order_number); the unique index
		// rejects the loser, which allocates again
		if db.IsUniqueViolation(err, "order_number") && attempt < orderNumberAttempts {
			continue
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(orderID, err)
	}
	lines, err := s.repo.ListLineItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list line items")
	}
	return &Detail{Order: *order, Lines: lines}, nil
}

// AddItems appends a batch of items to an order. The batch is all or nothing:
// every item must resolve and be producible, counting what the order still
// has to deduct for the same product and variant. New lines always re-arm the
// order for fulfillment; payment and status fall back only when the subtotal
// grows.
func (s *service) AddItems(ctx context.Context, orderID uuid.UUID, input AddItemsInput) (*Detail, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := validateDiscounts(input.Items); err != nil {
		return nil, err
	}

	var detail *Detail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items := s.catalog.WithTx(tx)
		resolver := s.recipes.WithTx(tx)

		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return orderLookupError(orderID, err)
		}
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRefunded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot add items to a %s order", order.Status))
		}

		existing, err := repo.ListLineItems(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list line items")
		}
		inOrder := make(map[types.LineKey]int64, len(existing))
		for _, line := range existing {
			if line.InventoryProcessed {
				continue
			}
			inOrder[line.Key()] += int64(line.Quantity)
		}

		accepted := make(map[types.LineKey]int64, len(input.Items))
		added := make([]models.OrderLineItem, 0, len(input.Items))
		for i, req := range input.Items {
			item, err := items.Resolve(ctx, req.ProductID, req.VariantID)
			if err != nil {
				return err
			}
			key := types.NewLineKey(req.ProductID, req.VariantID)
			limit, err := resolver.MaxProducibleQuantity(ctx, req.ProductID, req.VariantID)
			if err != nil {
				return err
			}
			wanted := inOrder[key] + accepted[key] + int64(req.Quantity)
			if wanted > limit {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("not enough stock to make %d x %s", wanted, item.Product.Name)).
					WithDetails(map[string]any{
						"item":       i,
						"product_id": req.ProductID.String(),
						"requested":  wanted,
						"available":  limit,
					})
			}
			accepted[key] += int64(req.Quantity)
			added = append(added, newLineItem(orderID, item, req))
		}

		originalSubtotal := order.Subtotal
		all := append(append([]models.OrderLineItem{}, existing...), added...)
		Recalculate(order, all, s.settings.MoneyScale)

		for _, line := range all[:len(existing)] {
			if err := repo.UpdateLineItem(ctx, line.ID, map[string]any{
				"subtotal":              line.Subtotal,
				"discounted_unit_price": line.DiscountedUnitPrice,
				"discount_amount":       line.DiscountAmount,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
			}
		}
		newLines := all[len(existing):]
		if err := repo.CreateLineItems(ctx, newLines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
		}

		updates := map[string]any{
			"subtotal":        order.Subtotal,
			"discount_amount": order.DiscountAmount,
			"total":           order.Total,
		}
		if len(newLines) > 0 {
			order.InventoryProcessed = false
			updates["inventory_processed"] = false
		}
		if order.Subtotal.GreaterThan(originalSubtotal) {
			if order.PaymentStatus == enums.PaymentStatusPaid {
				order.PaymentStatus = enums.PaymentStatusPartiallyPaid
				updates["payment_status"] = order.PaymentStatus
			}
			if order.Status == enums.OrderStatusCompleted {
				order.Status = enums.OrderStatusPending
				updates["status"] = order.Status
			}
		}
		if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
		}

		detail = &Detail{Order: *order, Lines: all}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"items": len(input.Items),
		"total": detail.Order.Total.String(),
	})
	s.logg.Info(logCtx, "items added to order")
	return detail, nil
}

func newLineItem(orderID uuid.UUID, item *catalog.Item, req ItemSpec) models.OrderLineItem {
	line := models.OrderLineItem{
		ID:                  uuid.New(),
		OrderID:             orderID,
		ProductID:           item.Product.ID,
		Quantity:            req.Quantity,
		UnitPrice:           item.UnitPrice,
		DiscountedUnitPrice: item.UnitPrice,
		Notes:               req.Notes,
	}
	if item.Variant != nil {
		variantID := item.Variant.ID
		line.VariantID = &variantID
	}
	if req.DiscountType != nil {
		discountType := *req.DiscountType
		line.DiscountType = &discountType
		switch discountType {
		case enums.DiscountTypePercentage:
			line.DiscountPercentage = req.DiscountValue
		case enums.DiscountTypeFixed:
			line.DiscountAmount = req.DiscountValue
		}
	}
	return line
}

func validateDiscounts(items []ItemSpec) error {
	details := map[string]string{}
	for i, req := range items {
		field := fmt.Sprintf("items[%d].discount_value", i)
		if req.DiscountType == nil {
			if !req.DiscountValue.IsZero() {
				details[field] = "requires discount_type"
			}
			continue
		}
		if !req.DiscountType.IsValid() {
			details[fmt.Sprintf("items[%d].discount_type", i)] = "must be one of [percentage fixed]"
			continue
		}
		if req.DiscountValue.IsNegative() {
			details[field] = "must not be negative"
			continue
		}
		if *req.DiscountType == enums.DiscountTypePercentage && req.DiscountValue.GreaterThan(hundred) {
			details[field] = "must be at most 100"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func orderLookupError(orderID uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"order_id": orderID.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

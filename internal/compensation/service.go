package compensation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/internal/orders"
	"github.com/angelmondragon/backhouse/internal/recipes"
	"github.com/angelmondragon/backhouse/internal/staff"
	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
	"github.com/angelmondragon/backhouse/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type compensationMetrics interface {
	IncCompensation(kind, refundType string)
}

// Service cancels and refunds orders, reversing stock that was consumed.
type Service interface {
	ProcessCancellation(ctx context.Context, input CancellationInput) (*models.OrderCompensation, error)
	ProcessRefund(ctx context.Context, input RefundInput) (*RefundResult, error)
	GetRefundableItems(ctx context.Context, orderID uuid.UUID) (*RefundableItems, error)
	CanShowRefundButton(ctx context.Context, orderID uuid.UUID) (bool, enums.RefundType, error)
}

// CancellationInput identifies the order and the staff member authorizing it.
// An empty Reason falls back to the configured default.
type CancellationInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	PIN     string
	Reason  string
}

// RefundInput identifies the order and the staff member authorizing it.
type RefundInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	PIN     string
	Reason  string
}

// RefundableItems lists every current line of an order with the refund that
// would apply.
type RefundableItems struct {
	Order models.Order
	Items []models.OrderLineItem
	Total decimal.Decimal
	Type  enums.RefundType
}

// RefundResult is the audit record written by a refund plus the stock it put back.
type RefundResult struct {
	Compensation *models.OrderCompensation
	Restocked    []ledger.Result
}

// ServiceParams wires the compensation engine.
type ServiceParams struct {
	Orders   orders.Repository
	Ledger   ledger.Service
	Recipes  *recipes.Service
	DB       txRunner
	Verifier staff.Verifier
	Settings config.SettingsConfig
	Metrics  compensationMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	orders   orders.Repository
	ledger   ledger.Service
	recipes  *recipes.Service
	tx       txRunner
	verifier staff.Verifier
	settings config.SettingsConfig
	metrics  compensationMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the compensation engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Recipes == nil:
		return nil, fmt.Errorf("recipe resolver required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Verifier == nil:
		return nil, fmt.Errorf("pin verifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		orders:   params.Orders,
		ledger:   params.Ledger,
		recipes:  params.Recipes,
		tx:       params.DB,
		verifier: params.Verifier,
		settings: params.Settings,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

// ProcessCancellation cancels a pending, unpaid order. Any line whose stock
// was already deducted is restocked in the same transaction.
func (s *service) ProcessCancellation(ctx context.Context, input CancellationInput) (*models.OrderCompensation, error) {
	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())
	ctx = s.logg.WithActorID(ctx, input.ActorID.String())

	if err := s.verifier.VerifyPIN(ctx, input.ActorID, input.PIN); err != nil {
		s.logg.Warn(ctx, "cancellation rejected: pin verification failed")
		return nil, err
	}

	var record *models.OrderCompensation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return lookupError(input.OrderID, err)
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeAlreadyCancelled, fmt.Sprintf("order #%d is already cancelled", order.OrderNumber))
		}
		if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusUnpaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("only pending, unpaid orders can be cancelled; order #%d is %s and %s", order.OrderNumber, order.Status, order.PaymentStatus))
		}

		reason := fallback(input.Reason, s.settings.DefaultCancellationReason)
		if _, err := s.reverse(ctx, tx, order, fmt.Sprintf("cancel order #%d", order.OrderNumber)); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":              enums.OrderStatusCancelled,
			"payment_status":      enums.PaymentStatusCancelled,
			"inventory_processed": false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		record = &models.OrderCompensation{
			OrderID:       order.ID,
			Kind:          enums.CompensationKindCancellation,
			Type:          enums.RefundTypeFull,
			Amount:        order.Total,
			PaymentMethod: order.PaymentMethod,
			Reason:        reason,
			ActorID:       input.ActorID,
			CreatedAt:     s.now(),
		}
		if err := repo.CreateCompensation(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cancellation record")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "order cancellation failed", err)
	}

	s.count(record)
	s.logg.Info(ctx, "order cancelled")
	return record, nil
}

// ProcessRefund refunds an eligible order. Stock consumed by deducted lines is
// put back exactly as it was taken, and every current line is refunded.
func (s *service) ProcessRefund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())
	ctx = s.logg.WithActorID(ctx, input.ActorID.String())

	if err := s.verifier.VerifyPIN(ctx, input.ActorID, input.PIN); err != nil {
		s.logg.Warn(ctx, "refund rejected: pin verification failed")
		return nil, err
	}

	result := &RefundResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			return lookupError(input.OrderID, err)
		}
		refundType, err := refundTypeFor(*order)
		if err != nil {
			return err
		}

		restocked, err := s.reverse(ctx, tx, order, fmt.Sprintf("refund order #%d", order.OrderNumber))
		if err != nil {
			return err
		}
		result.Restocked = restocked

		updates := map[string]any{"inventory_processed": false}
		if refundType == enums.RefundTypeFull {
			updates["payment_status"] = enums.PaymentStatusRefunded
			updates["status"] = enums.OrderStatusRefunded
		} else {
			updates["payment_status"] = enums.PaymentStatusRefundPartial
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		record := &models.OrderCompensation{
			OrderID:       order.ID,
			Kind:          enums.CompensationKindRefund,
			Type:          refundType,
			Amount:        order.Total,
			PaymentMethod: order.PaymentMethod,
			Reason:        fallback(input.Reason, s.settings.DefaultRefundReason),
			ActorID:       input.ActorID,
			CreatedAt:     s.now(),
		}
		if err := repo.CreateCompensation(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write refund record")
		}
		result.Compensation = record
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "order refund failed", err)
	}

	s.count(result.Compensation)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"type":      result.Compensation.Type.String(),
		"restocked": len(result.Restocked),
	}), "order refunded")
	return result, nil
}

func (s *service) GetRefundableItems(ctx context.Context, orderID uuid.UUID) (*RefundableItems, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupError(orderID, err)
	}
	refundType, err := refundTypeFor(*order)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.ListLineItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list line items")
	}
	return &RefundableItems{
		Order: *order,
		Items: lines,
		Total: order.Total,
		Type:  refundType,
	}, nil
}

func (s *service) CanShowRefundButton(ctx context.Context, orderID uuid.UUID) (bool, enums.RefundType, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return false, "", lookupError(orderID, err)
	}
	ok, refundType := CanShowRefund(*order)
	return ok, refundType, nil
}

// reverse restocks what the order's deducted lines consumed and clears their
// processed flags. Usage records that moved stock are replayed exactly; a
// deducted line without usage records falls back to its recipe.
func (s *service) reverse(ctx context.Context, tx *gorm.DB, order *models.Order, reason string) ([]ledger.Result, error) {
	repo := s.orders.WithTx(tx)
	stock := s.ledger.WithTx(tx)

	lines, err := repo.ListLineItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list line items")
	}
	usage, err := repo.ListUsageRecords(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list usage records")
	}
	byLine := make(map[uuid.UUID][]models.UsageRecord, len(lines))
	for _, record := range usage {
		byLine[record.OrderLineItemID] = append(byLine[record.OrderLineItemID], record)
	}

	var restocked []ledger.Result
	var reversedLines []uuid.UUID
	for _, line := range lines {
		if !line.InventoryProcessed {
			continue
		}
		records, ok := byLine[line.ID]
		if ok {
			for _, record := range records {
				if record.InventoryTransactionID == nil || !record.Quantity.IsPositive() {
					continue
				}
				res, err := stock.Restock(ctx, record.IngredientID, record.Quantity, reason)
				if err != nil {
					return nil, err
				}
				if res.Tracked {
					restocked = append(restocked, *res)
				}
			}
		} else {
			reqs, err := s.recipes.WithTx(tx).RequiredIngredients(ctx, line.ProductID, line.VariantID)
			if err != nil {
				return nil, err
			}
			qty := decimal.NewFromInt(int64(line.Quantity))
			for _, req := range reqs {
				amount := req.Quantity.Mul(qty)
				if !amount.IsPositive() {
					continue
				}
				res, err := stock.Restock(ctx, req.Ingredient.ID, amount, reason)
				if err != nil {
					return nil, err
				}
				if res.Tracked {
					restocked = append(restocked, *res)
				}
			}
		}
		reversedLines = append(reversedLines, line.ID)
	}

	if err := repo.SetLinesProcessed(ctx, reversedLines, false); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear line processed flags")
	}
	return restocked, nil
}

func (s *service) count(record *models.OrderCompensation) {
	if s.metrics == nil || record == nil {
		return
	}
	s.metrics.IncCompensation(record.Kind.String(), record.Type.String())
}

// fail logs unexpected failures and makes untyped errors opaque.
func (s *service) fail(ctx context.Context, msg string, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		if pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= 500 {
			s.logg.Error(ctx, msg, err)
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "reason", typed.Message()), msg)
		}
		return err
	}
	s.logg.Error(ctx, msg, err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func refundTypeFor(order models.Order) (enums.RefundType, error) {
	if alreadyRefunded(order) {
		return "", pkgerrors.New(pkgerrors.CodeAlreadyRefunded, fmt.Sprintf("order #%d is already refunded", order.OrderNumber))
	}
	ok, refundType := CanShowRefund(order)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order #%d is %s and %s and cannot be refunded", order.OrderNumber, order.Status, order.PaymentStatus))
	}
	return refundType, nil
}

func lookupError(orderID uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"order_id": orderID.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/internal/orders"
	"github.com/angelmondragon/backhouse/internal/recipes"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
	"github.com/angelmondragon/backhouse/pkg/logger"
	"github.com/angelmondragon/backhouse/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UsageRecorder receives units sold per product once stock has been deducted.
// Calls are best effort; failures never affect the order.
type UsageRecorder interface {
	RecordProductSale(ctx context.Context, productID uuid.UUID, qty int) error
}

type outcomeMetrics interface {
	ObserveOrder(result string)
}

// Service checks and applies the stock consumption of orders.
type Service interface {
	CanFulfill(ctx context.Context, orderID uuid.UUID) (bool, error)
	Process(ctx context.Context, orderID uuid.UUID) (*Result, error)
}

// Result reports what Process did.
type Result struct {
	OrderID          uuid.UUID
	AlreadyProcessed bool
	LinesProcessed   int
	UsageRecords     []models.UsageRecord
}

// Shortage is one ingredient an order needs more of than is in stock.
type Shortage struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Unit         enums.Unit      `json:"unit"`
}

// ServiceParams wires the fulfillment engine.
type ServiceParams struct {
	Orders   orders.Repository
	Ledger   ledger.Service
	Recipes  *recipes.Service
	DB       txRunner
	Recorder UsageRecorder
	Metrics  outcomeMetrics
	Logger   *logger.Logger
}

type service struct {
	orders   orders.Repository
	ledger   ledger.Service
	recipes  *recipes.Service
	tx       txRunner
	recorder UsageRecorder
	metrics  outcomeMetrics
	logg     *logger.Logger
}

// NewService builds the fulfillment engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Recipes == nil {
		return nil, fmt.Errorf("recipe resolver required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   params.Orders,
		ledger:   params.Ledger,
		recipes:  params.Recipes,
		tx:       params.DB,
		recorder: params.Recorder,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// plannedLine pairs a not yet deducted line with its per-unit requirements.
type plannedLine struct {
	line models.OrderLineItem
	reqs []recipes.Requirement
}

type deps struct {
	orders  orders.Repository
	ledger  ledger.Service
	recipes *recipes.Service
}

func (s *service) bind(tx *gorm.DB) deps {
	if tx == nil {
		return deps{orders: s.orders, ledger: s.ledger, recipes: s.recipes}
	}
	return deps{orders: s.orders.WithTx(tx), ledger: s.ledger.WithTx(tx), recipes: s.recipes.WithTx(tx)}
}

func (s *service) CanFulfill(ctx context.Context, orderID uuid.UUID) (bool, error) {
	d := s.bind(nil)
	if _, err := findOrder(ctx, d.orders, orderID); err != nil {
		return false, err
	}
	_, shortages, err := s.plan(ctx, d, orderID)
	if err != nil {
		return false, err
	}
	return len(shortages) == 0, nil
}

// Process deducts the ingredients of every pending line of the order in one
// transaction and marks the order completed. Processing an already processed
// order is a successful no-op.
func (s *service) Process(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	order, err := findOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}
	if order.InventoryProcessed {
		s.observe(metrics.ResultAlreadyProcessed)
		return &Result{OrderID: orderID, AlreadyProcessed: true}, nil
	}
	if err := checkProcessable(order); err != nil {
		return nil, err
	}

	var result *Result
	var sold map[uuid.UUID]int
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		d := s.bind(tx)
		locked, err := d.orders.LockOrder(ctx, orderID)
		if err != nil {
			return lookupError(orderID, err)
		}
		if locked.InventoryProcessed {
			result = &Result{OrderID: orderID, AlreadyProcessed: true}
			return nil
		}
		if err := checkProcessable(locked); err != nil {
			return err
		}

		planned, shortages, err := s.plan(ctx, d, orderID)
		if err != nil {
			return err
		}
		if len(shortages) > 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock to fulfill order #%d", locked.OrderNumber)).
				WithDetails(map[string]any{"shortages": shortages})
		}

		reason := fmt.Sprintf("order #%d", locked.OrderNumber)
		usage := make([]models.UsageRecord, 0, len(planned))
		lineIDs := make([]uuid.UUID, 0, len(planned))
		sold = make(map[uuid.UUID]int, len(planned))
		for _, p := range planned {
			lineID := p.line.ID
			qty := decimal.NewFromInt(int64(p.line.Quantity))
			for _, req := range p.reqs {
				consumed := req.Quantity.Mul(qty)
				if !consumed.IsPositive() {
					continue
				}
				res, err := d.ledger.Deduct(ctx, req.Ingredient.ID, consumed, reason, &lineID)
				if err != nil {
					return err
				}
				record := models.UsageRecord{
					OrderID:         orderID,
					OrderLineItemID: lineID,
					ProductID:       p.line.ProductID,
					IngredientID:    req.Ingredient.ID,
					Quantity:        consumed,
					Unit:            req.Unit,
				}
				if res.Transaction != nil {
					txID := res.Transaction.ID
					record.InventoryTransactionID = &txID
				}
				usage = append(usage, record)
			}
			lineIDs = append(lineIDs, lineID)
			sold[p.line.ProductID] += p.line.Quantity
		}

		if err := d.orders.CreateUsageRecords(ctx, usage); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write usage records")
		}
		if err := d.orders.SetLinesProcessed(ctx, lineIDs, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark lines processed")
		}
		if err := d.orders.UpdateOrder(ctx, orderID, map[string]any{
			"inventory_processed": true,
			"status":              enums.OrderStatusCompleted,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order processed")
		}

		result = &Result{OrderID: orderID, LinesProcessed: len(lineIDs), UsageRecords: usage}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if result.AlreadyProcessed {
		s.observe(metrics.ResultAlreadyProcessed)
		return result, nil
	}

	s.observe(metrics.ResultProcessed)
	s.logg.Info(s.logg.WithField(ctx, "lines", result.LinesProcessed), "order inventory processed")
	s.recordSales(ctx, sold)
	return result, nil
}

// plan resolves the requirements of every pending line and compares the
// aggregated needs per ingredient against current stock.
func (s *service) plan(ctx context.Context, d deps, orderID uuid.UUID) ([]plannedLine, []Shortage, error) {
	lines, err := d.orders.ListLineItems(ctx, orderID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list line items")
	}

	planned := make([]plannedLine, 0, len(lines))
	needs := map[uuid.UUID]decimal.Decimal{}
	ingredients := map[uuid.UUID]recipes.Requirement{}
	var ingredientOrder []uuid.UUID
	for _, line := range lines {
		if line.InventoryProcessed {
			continue
		}
		reqs, err := d.recipes.RequiredIngredients(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return nil, nil, err
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, req := range reqs {
			if _, ok := needs[req.Ingredient.ID]; !ok {
				ingredientOrder = append(ingredientOrder, req.Ingredient.ID)
				ingredients[req.Ingredient.ID] = req
			}
			needs[req.Ingredient.ID] = needs[req.Ingredient.ID].Add(req.Quantity.Mul(qty))
		}
		planned = append(planned, plannedLine{line: line, reqs: reqs})
	}

	var shortages []Shortage
	for _, id := range ingredientOrder {
		level, err := d.ledger.Level(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if ledger.Covers(level, needs[id]) {
			continue
		}
		tracked := level.(ledger.Tracked)
		req := ingredients[id]
		shortages = append(shortages, Shortage{
			IngredientID: id,
			Name:         req.Ingredient.Name,
			Required:     needs[id],
			Available:    tracked.Record.CurrentStock,
			Unit:         req.Unit,
		})
	}
	return planned, shortages, nil
}

func (s *service) recordSales(ctx context.Context, sold map[uuid.UUID]int) {
	if s.recorder == nil {
		return
	}
	for productID, qty := range sold {
		s.recordSale(ctx, productID, qty)
	}
}

func (s *service) recordSale(ctx context.Context, productID uuid.UUID, qty int) {
	logCtx := s.logg.WithField(ctx, "product_id", productID.String())
	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(logCtx, "usage recorder panicked", fmt.Errorf("%v", r))
		}
	}()
	if err := s.recorder.RecordProductSale(ctx, productID, qty); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "usage recording failed")
	}
}

// fail logs the failure and makes untyped errors opaque.
func (s *service) fail(ctx context.Context, err error) error {
	typed := pkgerrors.As(err)
	switch {
	case typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock:
		s.observe(metrics.ResultInsufficientStock)
		s.logg.Warn(ctx, "order cannot be fulfilled from current stock")
		return err
	case typed != nil:
		s.observe(metrics.ResultFailed)
		s.logg.Error(ctx, "order fulfillment failed", err)
		return err
	}
	s.observe(metrics.ResultFailed)
	s.logg.Error(ctx, "order fulfillment failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order fulfillment failed")
}

func (s *service) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveOrder(result)
	}
}

func checkProcessable(order *models.Order) error {
	switch {
	case order.Status == enums.OrderStatusCancelled,
		order.Status == enums.OrderStatusRefunded,
		order.PaymentStatus == enums.PaymentStatusCancelled,
		order.PaymentStatus == enums.PaymentStatusRefunded,
		order.PaymentStatus == enums.PaymentStatusRefundPartial:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order #%d is %s/%s and cannot be fulfilled", order.OrderNumber, order.Status, order.PaymentStatus))
	}
	return nil
}

func findOrder(ctx context.Context, repo orders.Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupError(orderID, err)
	}
	return order, nil
}

func lookupError(orderID uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"order_id": orderID.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

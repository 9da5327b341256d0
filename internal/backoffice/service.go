package backoffice

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backhouse/internal/compensation"
	"github.com/angelmondragon/backhouse/internal/fulfillment"
	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/internal/orders"
	"github.com/angelmondragon/backhouse/internal/recipes"
	"github.com/angelmondragon/backhouse/internal/staff"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
)

// Service is the back-office contract offered to the point-of-sale: stock
// movements, producibility checks, order fulfillment, modification and
// compensation.
type Service struct {
	ledger       ledger.Service
	recipes      *recipes.Service
	fulfillment  fulfillment.Service
	orders       orders.Service
	compensation compensation.Service
	staff        *staff.Service
}

// Components are the domain services the facade delegates to.
type Components struct {
	Ledger       ledger.Service
	Recipes      *recipes.Service
	Fulfillment  fulfillment.Service
	Orders       orders.Service
	Compensation compensation.Service
	Staff        *staff.Service
}

func NewService(c Components) *Service {
	return &Service{
		ledger:       c.Ledger,
		recipes:      c.Recipes,
		fulfillment:  c.Fulfillment,
		orders:       c.Orders,
		compensation: c.Compensation,
		staff:        c.Staff,
	}
}

func (s *Service) DecreaseStock(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string, ref *uuid.UUID) (*ledger.Result, error) {
	return s.ledger.Deduct(ctx, ingredientID, qty, reason, ref)
}

func (s *Service) Restock(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string) (*ledger.Result, error) {
	return s.ledger.Restock(ctx, ingredientID, qty, reason)
}

func (s *Service) AdjustStock(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string) (*ledger.Result, error) {
	return s.ledger.Adjust(ctx, ingredientID, newQty, reason)
}

func (s *Service) RecordWaste(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string) (*ledger.Result, error) {
	return s.ledger.RecordWaste(ctx, ingredientID, qty, reason)
}

// StockHistory lists the ledger entries of an ingredient, oldest first.
func (s *Service) StockHistory(ctx context.Context, ingredientID uuid.UUID) ([]models.InventoryTransaction, error) {
	return s.ledger.History(ctx, ingredientID)
}

// LowStock lists trackable ingredients under their minimum stock.
func (s *Service) LowStock(ctx context.Context) ([]ledger.LowStockItem, error) {
	return s.ledger.BelowMinimum(ctx)
}

func (s *Service) CanProduceProduct(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int64) (bool, error) {
	return s.recipes.CanProduceProduct(ctx, productID, variantID, qty)
}

func (s *Service) MaxProducibleQuantity(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (int64, error) {
	return s.recipes.MaxProducibleQuantity(ctx, productID, variantID)
}

func (s *Service) CanFulfillOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.fulfillment.CanFulfill(ctx, orderID)
}

func (s *Service) ProcessOrder(ctx context.Context, orderID uuid.UUID) (*fulfillment.Result, error) {
	return s.fulfillment.Process(ctx, orderID)
}

func (s *Service) OpenOrder(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
	return s.orders.Create(ctx, input)
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*orders.Detail, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *Service) AddItemsToOrder(ctx context.Context, orderID uuid.UUID, items []orders.ItemSpec) (*orders.Detail, error) {
	return s.orders.AddItems(ctx, orderID, orders.AddItemsInput{Items: items})
}

func (s *Service) ProcessCancellation(ctx context.Context, input compensation.CancellationInput) (*models.OrderCompensation, error) {
	return s.compensation.ProcessCancellation(ctx, input)
}

func (s *Service) ProcessRefund(ctx context.Context, input compensation.RefundInput) (*compensation.RefundResult, error) {
	return s.compensation.ProcessRefund(ctx, input)
}

func (s *Service) GetRefundableItems(ctx context.Context, orderID uuid.UUID) (*compensation.RefundableItems, error) {
	return s.compensation.GetRefundableItems(ctx, orderID)
}

func (s *Service) CanShowRefundButton(ctx context.Context, orderID uuid.UUID) (bool, enums.RefundType, error) {
	return s.compensation.CanShowRefundButton(ctx, orderID)
}

// RegisterStaff adds a staff member allowed to authorize compensations.
func (s *Service) RegisterStaff(ctx context.Context, displayName, pin string) (*models.StaffMember, error) {
	return s.staff.Register(ctx, displayName, pin)
}

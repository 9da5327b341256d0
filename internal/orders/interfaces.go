package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/db/models"
)

// Repository defines persistence operations for orders, their line items and
// the records fulfillment and compensation attach to them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	NextOrderNumber(ctx context.Context) (int64, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) error
	SetLinesProcessed(ctx context.Context, lineItemIDs []uuid.UUID, processed bool) error
	CreateUsageRecords(ctx context.Context, records []models.UsageRecord) error
	ListUsageRecords(ctx context.Context, orderID uuid.UUID) ([]models.UsageRecord, error)
	CreateCompensation(ctx context.Context, record *models.OrderCompensation) error
	ListCompensations(ctx context.Context, orderID uuid.UUID) ([]models.OrderCompensation, error)
}

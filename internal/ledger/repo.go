package ledger

import (
	"context"

	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for inventory records and their transaction log.
// The log is append-only, so entries have no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	FindRecord(ctx context.Context, ingredientID uuid.UUID) (*models.InventoryRecord, error)
	LockRecord(ctx context.Context, ingredientID uuid.UUID) (*models.InventoryRecord, error)
	CreateRecordIfMissing(ctx context.Context, record *models.InventoryRecord) error
	UpdateRecord(ctx context.Context, ingredientID uuid.UUID, expectedVersion int64, updates map[string]any) (int64, error)
	AppendTransaction(ctx context.Context, entry *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, ingredientID uuid.UUID) ([]models.InventoryTransaction, error)
	ListBelowMinimum(ctx context.Context) ([]LowStockItem, error)
}

// LowStockItem is a trackable ingredient whose stock fell under its minimum.
type LowStockItem struct {
	IngredientID uuid.UUID
	Name         string
	Record       models.InventoryRecord
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) FindRecord(ctx context.Context, ingredientID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// LockRecord reads the record with SELECT ... FOR UPDATE. Dialects without row
// locks (sqlite) fall back to the version check in UpdateRecord.
func (r *repository) LockRecord(ctx context.Context, ingredientID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ingredient_id = ?", ingredientID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRecordIfMissing(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "ingredient_id"}}, DoNothing: true}).
		Create(record).Error
}

// UpdateRecord applies updates only if the stored version still matches and
// returns the number of rows changed (0 means another writer won).
func (r *repository) UpdateRecord(ctx context.Context, ingredientID uuid.UUID, expectedVersion int64, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("ingredient_id = ? AND version = ?", ingredientID, expectedVersion).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) AppendTransaction(ctx context.Context, entry *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListTransactions(ctx context.Context, ingredientID uuid.UUID) ([]models.InventoryTransaction, error) {
	var entries []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListBelowMinimum(ctx context.Context) ([]LowStockItem, error) {
	var rows []struct {
		models.InventoryRecord
		Name string `gorm:"column:name"`
	}
	if err := r.db.WithContext(ctx).
		Table("inventory_records").
		Select("inventory_records.*, ingredients.name").
		Joins("JOIN ingredients ON ingredients.id = inventory_records.ingredient_id").
		Where("ingredients.trackable = ? AND inventory_records.current_stock < inventory_records.min_stock", true).
		Order("ingredients.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]LowStockItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, LowStockItem{
			IngredientID: row.IngredientID,
			Name:         row.Name,
			Record:       row.InventoryRecord,
		})
	}
	return items, nil
}

package recipes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/db/models"
)

// Repository reads recipe lines and the ingredients they reference.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListProductLines(ctx context.Context, productID uuid.UUID) ([]models.RecipeLine, error)
	FindIngredients(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a recipe repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListProductLines returns product-level and variant-level lines of a product.
func (r *repository) ListProductLines(ctx context.Context, productID uuid.UUID) ([]models.RecipeLine, error) {
	var lines []models.RecipeLine
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindIngredients(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ingredients []models.Ingredient
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

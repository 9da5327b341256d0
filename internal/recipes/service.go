package recipes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/internal/ledger"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

// UnlimitedQuantity is reported when no tracked ingredient constrains a product.
const UnlimitedQuantity int64 = 999999

// Requirement is the amount of one ingredient a single unit of a product
// consumes, already expressed in the ingredient's inventory unit.
type Requirement struct {
	Ingredient models.Ingredient
	Quantity   decimal.Decimal
	Unit       enums.Unit
}

// Service resolves recipes into ingredient requirements.
type Service struct {
	repo  Repository
	stock ledger.Service
}

// NewService wires the recipe resolver.
func NewService(repo Repository, stock ledger.Service) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recipe repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &Service{repo: repo, stock: stock}, nil
}

// WithTx returns a resolver whose reads run on tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	if tx == nil {
		return s
	}
	return &Service{repo: s.repo.WithTx(tx), stock: s.stock.WithTx(tx)}
}

// RequiredIngredients lists the per-unit requirements of a product or variant.
// Variant lines replace the product lines when the variant has any.
func (s *Service) RequiredIngredients(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) ([]Requirement, error) {
	lines, err := s.repo.ListProductLines(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipe lines")
	}
	lines = selectLines(lines, variantID)
	if len(lines) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.IngredientID]; ok {
			continue
		}
		seen[line.IngredientID] = struct{}{}
		ids = append(ids, line.IngredientID)
	}
	ingredients, err := s.repo.FindIngredients(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe ingredients")
	}
	byID := make(map[uuid.UUID]models.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		byID[ingredient.ID] = ingredient
	}

	totals := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, line := range lines {
		ingredient, ok := byID[line.IngredientID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe ingredient not found").
				WithDetails(map[string]any{"ingredient_id": line.IngredientID.String()})
		}
		qty, err := Normalize(line.Quantity, line.Unit, ingredient.Unit)
		if err != nil {
			return nil, err
		}
		totals[line.IngredientID] = totals[line.IngredientID].Add(qty)
	}

	out := make([]Requirement, 0, len(ids))
	for _, id := range ids {
		ingredient := byID[id]
		out = append(out, Requirement{
			Ingredient: ingredient,
			Quantity:   totals[id],
			Unit:       ingredient.Unit,
		})
	}
	return out, nil
}

// MaxProducibleQuantity returns how many units current stock can produce, or
// UnlimitedQuantity when nothing tracked constrains the product.
func (s *Service) MaxProducibleQuantity(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (int64, error) {
	reqs, err := s.RequiredIngredients(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}

	limit := UnlimitedQuantity
	for _, req := range reqs {
		if !req.Quantity.IsPositive() {
			continue
		}
		level, err := s.stock.Level(ctx, req.Ingredient.ID)
		if err != nil {
			return 0, err
		}
		tracked, ok := level.(ledger.Tracked)
		if !ok {
			continue
		}
		units := tracked.Record.CurrentStock.Div(req.Quantity).Floor().IntPart()
		if units < limit {
			limit = units
		}
	}
	if limit < 0 {
		limit = 0
	}
	return limit, nil
}

// CanProduceProduct reports whether qty units can be produced from current stock.
func (s *Service) CanProduceProduct(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int64) (bool, error) {
	limit, err := s.MaxProducibleQuantity(ctx, productID, variantID)
	if err != nil {
		return false, err
	}
	return qty <= limit, nil
}

func selectLines(lines []models.RecipeLine, variantID *uuid.UUID) []models.RecipeLine {
	if variantID != nil {
		var variantLines []models.RecipeLine
		for _, line := range lines {
			if line.VariantID != nil && *line.VariantID == *variantID {
				variantLines = append(variantLines, line)
			}
		}
		if len(variantLines) > 0 {
			return variantLines
		}
	}
	var productLines []models.RecipeLine
	for _, line := range lines {
		if line.VariantID == nil {
			productLines = append(productLines, line)
		}
	}
	return productLines
}

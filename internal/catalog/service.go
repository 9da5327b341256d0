package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/db/models"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

// Item is a resolved sellable unit: a product, optionally narrowed to one of
// its variants, with the price that applies.
type Item struct {
	Product   models.Product
	Variant   *models.ProductVariant
	UnitPrice decimal.Decimal
}

// Service resolves products and variants for order entry.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// WithTx returns a service whose reads run on tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	if tx == nil {
		return s
	}
	return &Service{repo: s.repo.WithTx(tx)}
}

// Resolve loads the product and, when variantID is set, the variant. The
// variant price wins over the product price. Retired (inactive) products and
// variants resolve as not found.
func (s *Service) Resolve(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Item, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the menu").
			WithDetails(map[string]any{"product_id": productID.String()})
	}

	item := &Item{Product: *product, UnitPrice: product.Price}
	if variantID == nil {
		return item, nil
	}

	variant, err := s.repo.FindVariant(ctx, *variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"variant_id": variantID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if variant.ProductID != product.ID {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidVariant, "variant does not belong to product").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"variant_id": variantID.String(),
			})
	}
	if !variant.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant is not on the menu").
			WithDetails(map[string]any{"variant_id": variantID.String()})
	}
	item.Variant = variant
	item.UnitPrice = variant.Price
	return item, nil
}

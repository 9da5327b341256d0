package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
	"github.com/angelmondragon/backhouse/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type mutationCounter interface {
	IncMutation(txType string)
}

// Service mutates stock. Every successful mutation writes the record and
// exactly one transaction entry atomically. A service bound with WithTx runs on
// the caller's transaction; an unbound one opens its own per call.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Deduct(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string, ref *uuid.UUID) (*Result, error)
	Restock(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string) (*Result, error)
	Adjust(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string) (*Result, error)
	RecordWaste(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string) (*Result, error)
	Level(ctx context.Context, ingredientID uuid.UUID) (StockLevel, error)
	History(ctx context.Context, ingredientID uuid.UUID) ([]models.InventoryTransaction, error)
	BelowMinimum(ctx context.Context) ([]LowStockItem, error)
}

// Result describes the outcome of a ledger mutation. Untracked results carry
// no transaction and leave stock untouched.
type Result struct {
	IngredientID  uuid.UUID
	Tracked       bool
	PreviousStock decimal.Decimal
	NewStock      decimal.Decimal
	Transaction   *models.InventoryTransaction
}

// ServiceParams wires the ledger service.
type ServiceParams struct {
	Repo    Repository
	DB      txRunner
	Logger  *logger.Logger
	Metrics mutationCounter
	Clock   func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	bound   bool
	logg    *logger.Logger
	metrics mutationCounter
	now     func() time.Time
}

// NewService builds a ledger service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.DB,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     clock,
	}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	bound := *s
	bound.repo = s.repo.WithTx(tx)
	bound.bound = true
	return &bound
}

func (s *service) inTx(ctx context.Context, fn func(repo Repository) error) error {
	if s.bound {
		return fn(s.repo)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
}

func (s *service) Deduct(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string, ref *uuid.UUID) (*Result, error) {
	return s.consume(ctx, enums.InventoryTransactionTypeUsage, ingredientID, qty, reason, ref)
}

func (s *service) RecordWaste(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string) (*Result, error) {
	return s.consume(ctx, enums.InventoryTransactionTypeWaste, ingredientID, qty, reason, nil)
}

func (s *service) consume(ctx context.Context, txType enums.InventoryTransactionType, ingredientID uuid.UUID, qty decimal.Decimal, reason string, ref *uuid.UUID) (*Result, error) {
	if err := validateQuantity(ingredientID, qty); err != nil {
		return nil, err
	}

	var result *Result
	err := s.inTx(ctx, func(repo Repository) error {
		ingredient, err := findIngredient(ctx, repo, ingredientID)
		if err != nil {
			return err
		}
		if !ingredient.Trackable {
			result = untracked(ingredientID)
			return nil
		}
		record, err := repo.LockRecord(ctx, ingredientID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = untracked(ingredientID)
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory record")
		}
		if record.CurrentStock.LessThan(qty) {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", ingredient.Name)).
				WithDetails(map[string]any{
					"ingredient_id": ingredientID.String(),
					"available":     record.CurrentStock.String(),
					"requested":     qty.String(),
					"unit":          ingredient.Unit.String(),
				})
		}
		result, err = s.apply(ctx, repo, record, qty.Neg(), txType, reason, ref, s.now(), nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(ctx, txType, result)
	return result, nil
}

func (s *service) Restock(ctx context.Context, ingredientID uuid.UUID, qty decimal.Decimal, reason string) (*Result, error) {
	if err := validateQuantity(ingredientID, qty); err != nil {
		return nil, err
	}

	var result *Result
	err := s.inTx(ctx, func(repo Repository) error {
		ingredient, err := findIngredient(ctx, repo, ingredientID)
		if err != nil {
			return err
		}
		if !ingredient.Trackable {
			result = untracked(ingredientID)
			return nil
		}
		record, err := s.ensureRecord(ctx, repo, ingredientID)
		if err != nil {
			return err
		}
		now := s.now()
		result, err = s.apply(ctx, repo, record, qty, enums.InventoryTransactionTypeRestock, reason, nil, now,
			map[string]any{"last_restocked_at": now})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(ctx, enums.InventoryTransactionTypeRestock, result)
	return result, nil
}

// Adjust sets stock to newQty and always logs an adjustment entry, even when
// the delta is zero.
func (s *service) Adjust(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string) (*Result, error) {
	if ingredientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient id required")
	}
	if newQty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	var result *Result
	err := s.inTx(ctx, func(repo Repository) error {
		ingredient, err := findIngredient(ctx, repo, ingredientID)
		if err != nil {
			return err
		}
		if !ingredient.Trackable {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not a trackable ingredient", ingredient.Name))
		}
		record, err := s.ensureRecord(ctx, repo, ingredientID)
		if err != nil {
			return err
		}
		result, err = s.apply(ctx, repo, record, newQty.Sub(record.CurrentStock), enums.InventoryTransactionTypeAdjustment, reason, nil, s.now(), nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(ctx, enums.InventoryTransactionTypeAdjustment, result)
	return result, nil
}

func (s *service) Level(ctx context.Context, ingredientID uuid.UUID) (StockLevel, error) {
	ingredient, err := findIngredient(ctx, s.repo, ingredientID)
	if err != nil {
		return nil, err
	}
	if !ingredient.Trackable {
		return Untracked{}, nil
	}
	record, err := s.repo.FindRecord(ctx, ingredientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Untracked{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory record")
	}
	return Tracked{Record: *record}, nil
}

func (s *service) History(ctx context.Context, ingredientID uuid.UUID) ([]models.InventoryTransaction, error) {
	entries, err := s.repo.ListTransactions(ctx, ingredientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}
	return entries, nil
}

func (s *service) BelowMinimum(ctx context.Context) ([]LowStockItem, error) {
	items, err := s.repo.ListBelowMinimum(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock records")
	}
	return items, nil
}

// ensureRecord locks the record, creating it from a zero baseline first when
// it does not exist. Concurrent creators converge on the same row.
func (s *service) ensureRecord(ctx context.Context, repo Repository, ingredientID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := repo.LockRecord(ctx, ingredientID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory record")
	}
	if err := repo.CreateRecordIfMissing(ctx, &models.InventoryRecord{
		IngredientID: ingredientID,
		CurrentStock: decimal.Zero,
		MinStock:     decimal.Zero,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory record")
	}
	record, err = repo.LockRecord(ctx, ingredientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory record")
	}
	return record, nil
}

func (s *service) apply(
	ctx context.Context,
	repo Repository,
	record *models.InventoryRecord,
	change decimal.Decimal,
	txType enums.InventoryTransactionType,
	reason string,
	ref *uuid.UUID,
	now time.Time,
	extra map[string]any,
) (*Result, error) {
	previous := record.CurrentStock
	next := previous.Add(change)
	if next.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock cannot go below zero")
	}

	updates := map[string]any{
		"current_stock": next,
		"version":       record.Version + 1,
		"updated_at":    now,
	}
	for k, v := range extra {
		updates[k] = v
	}
	affected, err := repo.UpdateRecord(ctx, record.IngredientID, record.Version, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory record")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "inventory record modified concurrently").
			WithDetails(map[string]any{"ingredient_id": record.IngredientID.String()})
	}

	entry := &models.InventoryTransaction{
		IngredientID:   record.IngredientID,
		Type:           txType,
		QuantityChange: change,
		PreviousStock:  previous,
		NewStock:       next,
		Reason:         reason,
		RefLineID:      ref,
		CreatedAt:      now,
	}
	if err := repo.AppendTransaction(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append inventory transaction")
	}

	return &Result{
		IngredientID:  record.IngredientID,
		Tracked:       true,
		PreviousStock: previous,
		NewStock:      next,
		Transaction:   entry,
	}, nil
}

func (s *service) observe(ctx context.Context, txType enums.InventoryTransactionType, result *Result) {
	if result == nil || !result.Tracked {
		return
	}
	if s.metrics != nil {
		s.metrics.IncMutation(txType.String())
	}
	logCtx := s.logg.WithIngredientID(ctx, result.IngredientID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"type":           txType.String(),
		"previous_stock": result.PreviousStock.String(),
		"new_stock":      result.NewStock.String(),
	})
	s.logg.Debug(logCtx, "inventory ledger entry written")
}

func findIngredient(ctx context.Context, repo Repository, id uuid.UUID) (*models.Ingredient, error) {
	ingredient, err := repo.FindIngredient(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found").
			WithDetails(map[string]any{"ingredient_id": id.String()})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ingredient")
	}
	return ingredient, nil
}

func validateQuantity(ingredientID uuid.UUID, qty decimal.Decimal) error {
	if ingredientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "ingredient id required")
	}
	if !qty.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func untracked(ingredientID uuid.UUID) *Result {
	return &Result{IngredientID: ingredientID}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrIngredientNotFound   = errors.New("ingredient not found")
	ErrIngredientNameExists = errors.New("ingredient name already exists")
	ErrIngredientInUse      = errors.New("ingredient is referenced by a recipe or the stock ledger")
)

// CategoryAll lists every category.
const CategoryAll = "all"

const (
	defaultLogPageSize = 20
	maxLogPageSize     = 100
	expiryDateLayout   = "2006-01-02"
)

// IngredientRequest is used for both creating and replacing an ingredient.
// On update a nil Quantity leaves the stock untouched.
type IngredientRequest struct {
	Name       string           `json:"name" binding:"required"`
	Category   string           `json:"category" binding:"required"`
	Unit       string           `json:"unit" binding:"required"`
	Quantity   *decimal.Decimal `json:"quantity"`
	Threshold  *decimal.Decimal `json:"threshold"`
	CostPrice  *decimal.Decimal `json:"cost_price"`
	ExpiryDate *string          `json:"expiry_date"` // YYYY-MM-DD
}

// StockAdjustmentRequest is a signed manual stock change.
type StockAdjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ChangeType  string          `json:"change_type" binding:"required"`
	Description string          `json:"description"`
}

// IngredientService defines the ingredient catalogue and manual stock operations.
type IngredientService interface {
	CreateIngredient(ctx context.Context, req IngredientRequest, actorID int64) (*models.Ingredient, error)
	GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error)
	GetIngredients(ctx context.Context, category string) ([]models.Ingredient, error)
	UpdateIngredient(ctx context.Context, id int64, req IngredientRequest, actorID int64) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id int64) error
	ListLowStock(ctx context.Context, limit int) ([]models.Ingredient, error)
	AdjustStock(ctx context.Context, id int64, req StockAdjustmentRequest, actorID int64) (*models.Ingredient, error)
	GetStockLogs(ctx context.Context, filters models.StockLogFilters) ([]models.StockLog, int, error)
}

type ingredientService struct {
	ingredientRepo repositories.IngredientRepository
	ledger         repositories.StockLedger
	txRunner       repositories.TxRunner
}

// NewIngredientService creates a new instance of IngredientService.
func NewIngredientService(ir repositories.IngredientRepository, ledger repositories.StockLedger, txRunner repositories.TxRunner) IngredientService {
	return &ingredientService{
		ingredientRepo: ir,
		ledger:         ledger,
		txRunner:       txRunner,
	}
}

// buildIngredient validates the request and maps it onto a model without touching Quantity.
func buildIngredient(req IngredientRequest) (*models.Ingredient, error) {
	ingredient := &models.Ingredient{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Unit:     strings.TrimSpace(req.Unit),
	}
	if ingredient.Name == "" || ingredient.Category == "" || ingredient.Unit == "" {
		return nil, fmt.Errorf("%w: name, unit, and category are required", ErrValidation)
	}

	for field, value := range map[string]*decimal.Decimal{
		"quantity":   req.Quantity,
		"threshold":  req.Threshold,
		"cost_price": req.CostPrice,
	} {
		if value != nil && value.IsNegative() {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
		}
	}
	if req.Threshold != nil {
		ingredient.Threshold = *req.Threshold
	}
	if req.CostPrice != nil {
		ingredient.CostPrice = *req.CostPrice
	}

	if req.ExpiryDate != nil && strings.TrimSpace(*req.ExpiryDate) != "" {
		expiry, err := time.Parse(expiryDateLayout, strings.TrimSpace(*req.ExpiryDate))
		if err != nil {
			return nil, fmt.Errorf("%w: expiry_date must be YYYY-MM-DD", ErrValidation)
		}
		ingredient.ExpiryDate = &expiry
	}
	return ingredient, nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req IngredientRequest, actorID int64) (*models.Ingredient, error) {
	ingredient, err := buildIngredient(req)
	if err != nil {
		return nil, err
	}

	// The row starts empty and the opening stock is booked through the ledger.
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.ingredientRepo.CreateIngredient(ctx, exec, ingredient); err != nil {
			return err
		}
		if req.Quantity != nil && req.Quantity.IsPositive() {
			quantity, err := s.ledger.Adjust(ctx, exec, ingredient.ID, *req.Quantity, actorID, models.ChangeTypeRestock, "initial stock")
			if err != nil {
				return err
			}
			ingredient.Quantity = quantity
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrIngredientNameExists, ingredient.Name)
		}
		return nil, fmt.Errorf("failed to create ingredient: %w", classifyStoreError(err))
	}
	return ingredient, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	ingredient, err := s.ingredientRepo.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient by ID: %w", classifyStoreError(err))
	}
	return ingredient, nil
}

func (s *ingredientService) GetIngredients(ctx context.Context, category string) ([]models.Ingredient, error) {
	var filter *string
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, CategoryAll) {
		filter = &c
	}
	ingredients, err := s.ingredientRepo.GetIngredients(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredients: %w", classifyStoreError(err))
	}
	return ingredients, nil
}

// UpdateIngredient replaces the descriptive fields. A changed quantity is booked as an adjust entry.
func (s *ingredientService) UpdateIngredient(ctx context.Context, id int64, req IngredientRequest, actorID int64) (*models.Ingredient, error) {
	ingredient, err := buildIngredient(req)
	if err != nil {
		return nil, err
	}
	ingredient.ID = id

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ingredientRepo.UpdateIngredient(ctx, exec, ingredient); err != nil {
			return err
		}
		if req.Quantity == nil {
			return nil
		}
		level, err := s.ledger.LockAndRead(ctx, exec, id)
		if err != nil {
			return err
		}
		delta := req.Quantity.Sub(level.Quantity)
		if delta.IsZero() {
			return nil
		}
		_, err = s.ledger.Adjust(ctx, exec, id, delta, actorID, models.ChangeTypeAdjust, "manual stock edit")
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrIngredientNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, fmt.Errorf("%w: '%s'", ErrIngredientNameExists, ingredient.Name)
		}
		return nil, fmt.Errorf("failed to update ingredient: %w", classifyStoreError(err))
	}
	return s.GetIngredientByID(ctx, id)
}

func (s *ingredientService) DeleteIngredient(ctx context.Context, id int64) error {
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.ingredientRepo.DeleteIngredient(ctx, exec, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrIngredientNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return fmt.Errorf("%w: ingredient %d", ErrIngredientInUse, id)
		}
		return fmt.Errorf("failed to delete ingredient: %w", classifyStoreError(err))
	}
	return nil
}

func (s *ingredientService) ListLowStock(ctx context.Context, limit int) ([]models.Ingredient, error) {
	ingredients, err := s.ingredientRepo.ListLowStock(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock ingredients: %w", classifyStoreError(err))
	}
	return ingredients, nil
}

// AdjustStock applies a manual restock or correction in its own transaction.
func (s *ingredientService) AdjustStock(ctx context.Context, id int64, req StockAdjustmentRequest, actorID int64) (*models.Ingredient, error) {
	changeType := models.ChangeType(strings.ToLower(strings.TrimSpace(req.ChangeType)))
	switch {
	case changeType != models.ChangeTypeRestock && changeType != models.ChangeTypeAdjust:
		return nil, fmt.Errorf("%w: change_type must be restock or adjust", ErrValidation)
	case req.Amount.IsZero():
		return nil, fmt.Errorf("%w: amount must not be zero", ErrValidation)
	case changeType == models.ChangeTypeRestock && req.Amount.IsNegative():
		return nil, fmt.Errorf("%w: restock amount must be positive", ErrValidation)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("manual %s", changeType)
	}

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		level, err := s.ledger.LockAndRead(ctx, exec, id)
		if err != nil {
			return err
		}
		if level.Quantity.Add(req.Amount).IsNegative() {
			return &InsufficientStockError{
				IngredientID: id,
				Name:         level.Name,
				Unit:         level.Unit,
				Required:     req.Amount.Neg(),
				Available:    level.Quantity,
			}
		}
		_, err = s.ledger.Adjust(ctx, exec, id, req.Amount, actorID, changeType, description)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrIngredientNotFound
		case errors.Is(err, repositories.ErrInsufficientStock):
			return nil, fmt.Errorf("%w: ingredient %d cannot go below zero", ErrInsufficientStock, id)
		}
		return nil, classifyStoreError(err)
	}
	return s.GetIngredientByID(ctx, id)
}

func (s *ingredientService) GetStockLogs(ctx context.Context, filters models.StockLogFilters) ([]models.StockLog, int, error) {
	if filters.ChangeType != nil && *filters.ChangeType != "" && !models.IsValidChangeType(*filters.ChangeType) {
		return nil, 0, fmt.Errorf("%w: unknown change_type '%s'", ErrValidation, *filters.ChangeType)
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, 0, fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultLogPageSize
	}
	if filters.PageSize > maxLogPageSize {
		filters.PageSize = maxLogPageSize
	}
	logs, total, err := s.ledger.GetLogs(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stock logs: %w", classifyStoreError(err))
	}
	return logs, total, nil
}

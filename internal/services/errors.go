package services

import (
	"context"
	"errors"
	"fmt"

	"kitchen_inventory_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors ---
var (
	ErrValidation          = errors.New("validation error")
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry the request")
	ErrStoreFailure        = errors.New("data store failure")
)

// InsufficientStockError names the first ingredient that could not cover a request.
type InsufficientStockError struct {
	IngredientID int64           `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: ingredient %d (%s) requires %s %s, %s available",
		ErrInsufficientStock, e.IngredientID, e.Name, e.Required, e.Unit, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// classifyStoreError maps repository errors onto ConcurrencyConflict or StoreFailure.
// Errors that already carry a service kind are returned unchanged.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrRecipeNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrStoreFailure):
		return err
	case errors.Is(err, repositories.ErrConcurrencyConflict):
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
}

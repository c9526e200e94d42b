package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"kitchen_inventory_backend/internal/events"
	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CookRequest is the body of a cook call. The actor comes from the token, never from the body.
type CookRequest struct {
	MenuID   int64 `json:"menu_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required"`
}

// cookStage is the last stage a cook transaction completed.
type cookStage string

const (
	stageStarted        cookStage = "started"
	stageRecipeResolved cookStage = "recipe_resolved"
	stageStockValidated cookStage = "stock_validated"
	stageStockDeducted  cookStage = "stock_deducted"
	stageLogged         cookStage = "logged"
	stageCommitted      cookStage = "committed"
)

const (
	// maxCookQuantity is the largest value cooking_events.quantity (INTEGER) holds.
	maxCookQuantity = math.MaxInt32
	publishTimeout  = 5 * time.Second
)

// CookingService is the single entry point for cooking a menu and reading cooking history.
type CookingService interface {
	// Cook resolves the recipe, validates and deducts every ingredient, and records the
	// cooking event in one transaction. Nothing is persisted unless everything succeeds.
	Cook(ctx context.Context, menuID int64, quantity int, actorID int64) (*models.CookingEvent, error)
	GetHistory(ctx context.Context, filters models.CookingHistoryFilters) ([]models.CookingHistoryEntry, error)
}

type cookingService struct {
	txRunner    repositories.TxRunner
	resolver    repositories.RecipeResolver
	ledger      repositories.StockLedger
	cookingRepo repositories.CookingRepository
	publisher   events.Publisher
	now         func() time.Time
}

// NewCookingService creates a new instance of CookingService. A nil publisher disables event fan-out.
func NewCookingService(
	txRunner repositories.TxRunner,
	resolver repositories.RecipeResolver,
	ledger repositories.StockLedger,
	cookingRepo repositories.CookingRepository,
	publisher events.Publisher,
) CookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &cookingService{
		txRunner:    txRunner,
		resolver:    resolver,
		ledger:      ledger,
		cookingRepo: cookingRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *cookingService) Cook(ctx context.Context, menuID int64, quantity int, actorID int64) (*models.CookingEvent, error) {
	if err := validateCook(menuID, quantity, actorID); err != nil {
		log.Warn().Err(err).Int64("menu_id", menuID).Int("quantity", quantity).Int64("actor_id", actorID).
			Str("stage", string(stageStarted)).Msg("cook rejected")
		return nil, err
	}

	stage := stageStarted
	var event *models.CookingEvent

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		lines, err := s.resolver.ResolveRecipe(ctx, exec, menuID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: menu %d has no recipe", ErrRecipeNotFound, menuID)
			}
			return classifyStoreError(err)
		}
		stage = stageRecipeResolved

		// Every line is locked and checked before any row is changed. Locks are taken in
		// recipe-line order so concurrent cooks of overlapping menus queue instead of deadlocking.
		qty := decimal.NewFromInt(int64(quantity))
		required := make([]decimal.Decimal, len(lines))
		available := make([]decimal.Decimal, len(lines))
		for i, line := range lines {
			required[i] = line.Amount.Mul(qty)

			level, err := s.ledger.LockAndRead(ctx, exec, line.IngredientID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return &InsufficientStockError{
						IngredientID: line.IngredientID,
						Name:         line.IngredientName,
						Unit:         line.Unit,
						Required:     required[i],
						Available:    decimal.Zero,
					}
				}
				return classifyStoreError(err)
			}
			available[i] = level.Quantity
			if level.Quantity.LessThan(required[i]) {
				return &InsufficientStockError{
					IngredientID: line.IngredientID,
					Name:         level.Name,
					Unit:         level.Unit,
					Required:     required[i],
					Available:    level.Quantity,
				}
			}
		}
		stage = stageStockValidated

		reason := fmt.Sprintf("cooking deduction for menu %d", menuID)
		for i, line := range lines {
			err := s.ledger.Deduct(ctx, exec, line.IngredientID, required[i], actorID, reason)
			if err != nil {
				if errors.Is(err, repositories.ErrInsufficientStock) || errors.Is(err, repositories.ErrNotFound) {
					return &InsufficientStockError{
						IngredientID: line.IngredientID,
						Name:         line.IngredientName,
						Unit:         line.Unit,
						Required:     required[i],
						Available:    available[i],
					}
				}
				return classifyStoreError(err)
			}
		}
		stage = stageStockDeducted

		event = &models.CookingEvent{
			UserID:   actorID,
			MenuID:   menuID,
			Quantity: quantity,
			CookedAt: s.now(),
		}
		if _, err := s.cookingRepo.InsertCookingEvent(ctx, exec, event); err != nil {
			return classifyStoreError(err)
		}
		stage = stageLogged
		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		logCookFailure(err, stage, menuID, quantity, actorID)
		return nil, err
	}
	stage = stageCommitted

	log.Info().Int64("cooking_event_id", event.ID).Int64("menu_id", menuID).Int("quantity", quantity).
		Int64("actor_id", actorID).Str("stage", string(stage)).Msg("cook committed")

	// Detached from the request: the cook is already committed.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishCookingEvent(pubCtx, *event); err != nil {
		log.Warn().Err(err).Int64("cooking_event_id", event.ID).Msg("failed to publish cooking event")
	}
	return event, nil
}

func validateCook(menuID int64, quantity int, actorID int64) error {
	switch {
	case menuID <= 0:
		return fmt.Errorf("%w: menu_id must be a positive integer", ErrValidation)
	case quantity <= 0:
		return fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	case quantity > maxCookQuantity:
		return fmt.Errorf("%w: quantity must not exceed %d", ErrValidation, maxCookQuantity)
	case actorID <= 0:
		return fmt.Errorf("%w: actor is not identified", ErrValidation)
	}
	return nil
}

// logCookFailure records the rolled back transaction and the last stage it completed.
func logCookFailure(err error, stage cookStage, menuID int64, quantity int, actorID int64) {
	level := zerolog.ErrorLevel
	if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrRecipeNotFound) || errors.Is(err, ErrConcurrencyConflict) {
		level = zerolog.WarnLevel
	}
	event := log.WithLevel(level)
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		event = event.Int64("ingredient_id", stockErr.IngredientID).
			Str("required", stockErr.Required.String()).
			Str("available", stockErr.Available.String())
	}
	if errors.Is(err, ErrConcurrencyConflict) {
		event = event.Bool("retryable", true)
	}
	event.Err(err).
		Int64("menu_id", menuID).
		Int("quantity", quantity).
		Int64("actor_id", actorID).
		Str("stage", string(stage)).
		Msg("cook rolled back")
}

func (s *cookingService) GetHistory(ctx context.Context, filters models.CookingHistoryFilters) ([]models.CookingHistoryEntry, error) {
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, fmt.Errorf("%w: endDate must not be before startDate", ErrValidation)
	}
	history, err := s.cookingRepo.GetHistory(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get cooking history: %w", classifyStoreError(err))
	}
	return history, nil
}

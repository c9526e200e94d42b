package services

import (
	"context"
	"fmt"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// SuggestionPolicy decides how much of a low ingredient to reorder.
type SuggestionPolicy interface {
	SuggestedQuantity(ingredient models.Ingredient) decimal.Decimal
}

// ThresholdMultiple orders Factor times the reorder threshold.
type ThresholdMultiple struct {
	Factor decimal.Decimal
}

// TwiceThreshold is the default policy.
var TwiceThreshold = ThresholdMultiple{Factor: decimal.NewFromInt(2)}

func (p ThresholdMultiple) SuggestedQuantity(ingredient models.Ingredient) decimal.Decimal {
	return ingredient.Threshold.Mul(p.Factor)
}

// SuggestionService builds purchase orders for ingredients at or below threshold.
type SuggestionService interface {
	GetPurchaseSuggestions(ctx context.Context) ([]models.PurchaseSuggestion, error)
}

type suggestionService struct {
	ingredientRepo repositories.IngredientRepository
	policy         SuggestionPolicy
}

// NewSuggestionService creates a new instance of SuggestionService. A nil policy means TwiceThreshold.
func NewSuggestionService(ir repositories.IngredientRepository, policy SuggestionPolicy) SuggestionService {
	if policy == nil {
		policy = TwiceThreshold
	}
	return &suggestionService{ingredientRepo: ir, policy: policy}
}

func (s *suggestionService) GetPurchaseSuggestions(ctx context.Context) ([]models.PurchaseSuggestion, error) {
	candidates, err := s.ingredientRepo.ListPurchaseCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase candidates: %w", classifyStoreError(err))
	}

	suggestions := make([]models.PurchaseSuggestion, 0, len(candidates))
	for _, ingredient := range candidates {
		suggested := s.policy.SuggestedQuantity(ingredient)
		suggestions = append(suggestions, models.PurchaseSuggestion{
			IngredientID:      ingredient.ID,
			Name:              ingredient.Name,
			Quantity:          ingredient.Quantity,
			Threshold:         ingredient.Threshold,
			Unit:              ingredient.Unit,
			CostPrice:         ingredient.CostPrice,
			SuggestedQuantity: suggested,
			EstimatedCost:     suggested.Mul(ingredient.CostPrice),
		})
	}
	return suggestions, nil
}

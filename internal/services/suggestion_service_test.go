package services

import (
	"context"
	"testing"

	"kitchen_inventory_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPurchaseSuggestions_DefaultPolicy(t *testing.T) {
	store := newBakery()
	store.addIngredient(3, "Eggs", "pcs", "2", "6")
	store.ingredients[3].CostPrice = decimal.RequireFromString("0.25")
	store.addIngredient(4, "Saffron", "g", "0", "0")

	suggestions, err := NewSuggestionService(store, nil).GetPurchaseSuggestions(context.Background())
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	eggs := suggestions[0]
	assert.Equal(t, "Eggs", eggs.Name)
	assert.True(t, decimal.NewFromInt(12).Equal(eggs.SuggestedQuantity))
	assert.True(t, decimal.NewFromInt(3).Equal(eggs.EstimatedCost))
}

type topUpPolicy struct{}

func (topUpPolicy) SuggestedQuantity(ingredient models.Ingredient) decimal.Decimal {
	return ingredient.Threshold.Sub(ingredient.Quantity)
}

func TestGetPurchaseSuggestions_CustomPolicy(t *testing.T) {
	store := newBakery()
	store.addIngredient(3, "Eggs", "pcs", "2", "6")

	suggestions, err := NewSuggestionService(store, topUpPolicy{}).GetPurchaseSuggestions(context.Background())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.True(t, decimal.NewFromInt(4).Equal(suggestions[0].SuggestedQuantity))
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Menu stock status labels returned by the menu listing.
const (
	StockStatusNormal = "normal"
	StockStatusLow    = "low"
)

// Menu is a dish that can be cooked. Its recipe is a list of RecipeLine.
type Menu struct {
	ID          int64           `json:"menu_id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Category    string          `json:"category" db:"category"`
	ImageURL    *string         `json:"image_url" db:"image_url"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	StockStatus string          `json:"stock_status,omitempty"`
	Ingredients []RecipeLine    `json:"ingredients,omitempty"`
}

// RecipeLine is the amount of one ingredient needed to produce one unit of a menu.
type RecipeLine struct {
	ID             int64           `json:"id" db:"id"`
	MenuID         int64           `json:"menu_id" db:"menu_id"`
	IngredientID   int64           `json:"ingredient_id" db:"ingredient_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Unit           string          `json:"unit" db:"unit"`
	IngredientName string          `json:"ingredient_name,omitempty"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeType classifies an entry of the stock ledger.
type ChangeType string

const (
	ChangeTypeDeduct  ChangeType = "deduct"
	ChangeTypeRestock ChangeType = "restock"
	ChangeTypeAdjust  ChangeType = "adjust"
)

// IsValidChangeType reports whether s names a known ledger change type.
func IsValidChangeType(s string) bool {
	switch ChangeType(s) {
	case ChangeTypeDeduct, ChangeTypeRestock, ChangeTypeAdjust:
		return true
	default:
		return false
	}
}

// Ingredient is a stocked raw material. Quantity is only changed through the stock ledger.
type Ingredient struct {
	ID         int64           `json:"ingredient_id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Category   string          `json:"category" db:"category"`
	Unit       string          `json:"unit" db:"unit"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	Threshold  decimal.Decimal `json:"threshold" db:"threshold"`
	CostPrice  decimal.Decimal `json:"cost_price" db:"cost_price"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// IsLow reports whether the ingredient is at or below its reorder threshold.
func (i Ingredient) IsLow() bool {
	return i.Quantity.LessThanOrEqual(i.Threshold)
}

// StockLevel is what the ledger returns for a row it holds locked.
type StockLevel struct {
	IngredientID int64
	Name         string
	Unit         string
	Quantity     decimal.Decimal
}

// StockLog is one append-only entry of the stock ledger.
type StockLog struct {
	ID             int64           `json:"log_id" db:"id"`
	IngredientID   int64           `json:"ingredient_id" db:"ingredient_id"`
	ChangedBy      int64           `json:"changed_by" db:"changed_by"`
	ChangeType     ChangeType      `json:"change_type" db:"change_type"`
	Amount         decimal.Decimal `json:"amount" db:"amount"` // signed
	Description    string          `json:"description" db:"description"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	IngredientName *string         `json:"ingredient_name,omitempty"`
	Username       *string         `json:"username,omitempty"`
}

// StockLogFilters narrows the ledger listing.
type StockLogFilters struct {
	IngredientID *int64
	ChangeType   *string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

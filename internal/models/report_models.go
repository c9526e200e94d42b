package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats holds the headline counters of the dashboard.
type DashboardStats struct {
	LowStockCount   int             `json:"low_stock_count"`
	TodaySales      decimal.Decimal `json:"today_sales"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalOrders     int             `json:"total_orders"`
	BestSellerToday *string         `json:"best_seller_today"`
}

// DailySales is the revenue of cooked menus for a calendar day.
type DailySales struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Sales decimal.Decimal `json:"sales"`
}

// LowStockItem is the short form used by dashboard and notifications.
type LowStockItem struct {
	IngredientID int64           `json:"ingredient_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Threshold    decimal.Decimal `json:"threshold"`
	Unit         string          `json:"unit"`
}

// DashboardSummary holds key metrics for the dashboard.
type DashboardSummary struct {
	Stats          DashboardStats `json:"stats"`
	SalesLast7Days []DailySales   `json:"salesLast7Days"`
	LowStockItems  []LowStockItem `json:"lowStockItems"`
}

// UsageTrend is the total deducted quantity for one day.
type UsageTrend struct {
	Date       string          `json:"date"`
	TotalUsage decimal.Decimal `json:"total_usage"`
}

// CostSummaryItem is the deducted cost of one ingredient over a period.
type CostSummaryItem struct {
	IngredientName string          `json:"ingredient_name"`
	TotalCost      decimal.Decimal `json:"total_cost"`
}

// UserStats summarizes what a user cooked recently.
type UserStats struct {
	CookedToday    int     `json:"cooked_today"`
	CookedThisWeek int     `json:"cooked_this_week"`
	FavoriteMenu   *string `json:"favorite_menu"`
}

// PurchaseSuggestion is a low-stock ingredient with a suggested reorder quantity.
type PurchaseSuggestion struct {
	IngredientID      int64           `json:"ingredient_id"`
	Name              string          `json:"name"`
	Quantity          decimal.Decimal `json:"quantity"`
	Threshold         decimal.Decimal `json:"threshold"`
	Unit              string          `json:"unit"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
}

// ReportRequestParams holds the date range of a report request.
type ReportRequestParams struct {
	StartDate time.Time
	EndDate   time.Time
}

package services

import (
	"context"
	"fmt"
	"time"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	salesWindowDays   = 7
	dashboardLowStock = 5
	userStatsWeekDays = 7
	reportDateLayout  = "2006-01-02"
)

// ReportService builds the dashboard and the date-ranged reports.
type ReportService interface {
	GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
	GetUsageTrends(ctx context.Context, params models.ReportRequestParams) ([]models.UsageTrend, error)
	GetCostSummary(ctx context.Context, params models.ReportRequestParams) ([]models.CostSummaryItem, error)
	GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error)
}

type reportService struct {
	reportRepo     repositories.ReportRepository
	ingredientRepo repositories.IngredientRepository
	loc            *time.Location
	now            func() time.Time
}

// NewReportService creates a new instance of ReportService. Day boundaries and day buckets
// are computed in loc, which must be UTC or a named IANA location.
func NewReportService(rr repositories.ReportRepository, ir repositories.IngredientRepository, loc *time.Location) ReportService {
	if loc == nil || loc == time.Local {
		loc = time.UTC
	}
	return &reportService{
		reportRepo:     rr,
		ingredientRepo: ir,
		loc:            loc,
		now:            time.Now,
	}
}

func (s *reportService) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *reportService) GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	today := s.startOfDay(s.now())
	tomorrow := today.AddDate(0, 0, 1)

	stats, err := s.reportRepo.GetDashboardStats(ctx, today, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", classifyStoreError(err))
	}

	windowStart := today.AddDate(0, 0, -(salesWindowDays - 1))
	sales, err := s.reportRepo.GetDailySales(ctx, windowStart, tomorrow, s.loc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get daily sales: %w", classifyStoreError(err))
	}

	low, err := s.ingredientRepo.ListLowStock(ctx, dashboardLowStock)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock items: %w", classifyStoreError(err))
	}
	lowItems := make([]models.LowStockItem, 0, len(low))
	for _, ingredient := range low {
		lowItems = append(lowItems, toLowStockItem(ingredient))
	}

	return &models.DashboardSummary{
		Stats:          *stats,
		SalesLast7Days: fillSalesWindow(windowStart, salesWindowDays, sales),
		LowStockItems:  lowItems,
	}, nil
}

// fillSalesWindow returns one entry per day starting at from, zero where nothing was sold.
func fillSalesWindow(from time.Time, days int, sales []models.DailySales) []models.DailySales {
	byDay := make(map[string]decimal.Decimal, len(sales))
	for _, day := range sales {
		byDay[day.Date] = day.Sales
	}
	filled := make([]models.DailySales, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format(reportDateLayout)
		filled = append(filled, models.DailySales{Date: date, Sales: byDay[date]})
	}
	return filled
}

func toLowStockItem(ingredient models.Ingredient) models.LowStockItem {
	return models.LowStockItem{
		IngredientID: ingredient.ID,
		Name:         ingredient.Name,
		Quantity:     ingredient.Quantity,
		Threshold:    ingredient.Threshold,
		Unit:         ingredient.Unit,
	}
}

// reportRange turns inclusive calendar dates into a half-open range.
func (s *reportService) reportRange(params models.ReportRequestParams) (time.Time, time.Time, error) {
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate and endDate are required", ErrValidation)
	}
	from := s.startOfDay(params.StartDate)
	to := s.startOfDay(params.EndDate)
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must not be before startDate", ErrValidation)
	}
	return from, to.AddDate(0, 0, 1), nil
}

func (s *reportService) GetUsageTrends(ctx context.Context, params models.ReportRequestParams) ([]models.UsageTrend, error) {
	from, to, err := s.reportRange(params)
	if err != nil {
		return nil, err
	}
	trends, err := s.reportRepo.GetUsageTrends(ctx, from, to, s.loc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get usage trends: %w", classifyStoreError(err))
	}
	return trends, nil
}

func (s *reportService) GetCostSummary(ctx context.Context, params models.ReportRequestParams) ([]models.CostSummaryItem, error) {
	from, to, err := s.reportRange(params)
	if err != nil {
		return nil, err
	}
	items, err := s.reportRepo.GetCostSummary(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get cost summary: %w", classifyStoreError(err))
	}
	return items, nil
}

func (s *reportService) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be a positive integer", ErrValidation)
	}
	today := s.startOfDay(s.now())
	stats, err := s.reportRepo.GetUserStats(ctx, userID, today, today.AddDate(0, 0, -userStatsWeekDays))
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", classifyStoreError(err))
	}
	return stats, nil
}

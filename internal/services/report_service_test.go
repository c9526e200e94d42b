package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"kitchen_inventory_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	stats     models.DashboardStats
	sales     []models.DailySales
	err       error
	gotRanges [][2]time.Time
	gotZones  []string
	userStats models.UserStats
}

func (r *fakeReportRepo) record(from, to time.Time) {
	r.gotRanges = append(r.gotRanges, [2]time.Time{from, to})
}

func (r *fakeReportRepo) GetDashboardStats(_ context.Context, dayStart, dayEnd time.Time) (*models.DashboardStats, error) {
	r.record(dayStart, dayEnd)
	if r.err != nil {
		return nil, r.err
	}
	stats := r.stats
	return &stats, nil
}

func (r *fakeReportRepo) GetDailySales(_ context.Context, from, to time.Time, zone string) ([]models.DailySales, error) {
	r.record(from, to)
	r.gotZones = append(r.gotZones, zone)
	return r.sales, r.err
}

func (r *fakeReportRepo) GetUsageTrends(_ context.Context, from, to time.Time, zone string) ([]models.UsageTrend, error) {
	r.record(from, to)
	r.gotZones = append(r.gotZones, zone)
	return []models.UsageTrend{}, r.err
}

func (r *fakeReportRepo) GetCostSummary(_ context.Context, from, to time.Time) ([]models.CostSummaryItem, error) {
	r.record(from, to)
	return []models.CostSummaryItem{}, r.err
}

func (r *fakeReportRepo) GetUserStats(_ context.Context, _ int64, dayStart, weekStart time.Time) (*models.UserStats, error) {
	r.record(weekStart, dayStart)
	stats := r.userStats
	return &stats, r.err
}

func newTestReportService(repo *fakeReportRepo, store *memStore) *reportService {
	svc := NewReportService(repo, store, time.UTC).(*reportService)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }
	return svc
}

func TestGetDashboardSummary_ZeroFillsSalesWindow(t *testing.T) {
	repo := &fakeReportRepo{
		stats: models.DashboardStats{LowStockCount: 1, TotalOrders: 4},
		sales: []models.DailySales{
			{Date: "2024-03-05", Sales: decimal.RequireFromString("12.50")},
			{Date: "2024-03-10", Sales: decimal.RequireFromString("7")},
		},
	}
	store := newBakery()
	store.addIngredient(3, "Eggs", "pcs", "2", "6")

	summary, err := newTestReportService(repo, store).GetDashboardSummary(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.SalesLast7Days, 7)
	assert.Equal(t, "2024-03-04", summary.SalesLast7Days[0].Date)
	assert.True(t, summary.SalesLast7Days[0].Sales.IsZero())
	assert.Equal(t, "2024-03-05", summary.SalesLast7Days[1].Date)
	assert.True(t, decimal.RequireFromString("12.5").Equal(summary.SalesLast7Days[1].Sales))
	assert.Equal(t, "2024-03-10", summary.SalesLast7Days[6].Date)

	require.Len(t, summary.LowStockItems, 1)
	assert.Equal(t, "Eggs", summary.LowStockItems[0].Name)
	assert.Equal(t, 4, summary.Stats.TotalOrders)

	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, [2]time.Time{today, today.AddDate(0, 0, 1)}, repo.gotRanges[0])
}

func TestGetDashboardSummary_StoreFailure(t *testing.T) {
	repo := &fakeReportRepo{err: errors.New("connection reset")}
	_, err := newTestReportService(repo, newBakery()).GetDashboardSummary(context.Background())
	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestReportRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	t.Run("end date is inclusive", func(t *testing.T) {
		repo := &fakeReportRepo{}
		_, err := newTestReportService(repo, newBakery()).GetUsageTrends(context.Background(), models.ReportRequestParams{StartDate: day(1), EndDate: day(3)})
		require.NoError(t, err)
		assert.Equal(t, [2]time.Time{day(1), day(4)}, repo.gotRanges[0])
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := newTestReportService(&fakeReportRepo{}, newBakery()).GetCostSummary(context.Background(), models.ReportRequestParams{StartDate: day(5), EndDate: day(3)})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing dates", func(t *testing.T) {
		_, err := newTestReportService(&fakeReportRepo{}, newBakery()).GetCostSummary(context.Background(), models.ReportRequestParams{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestGetUserStats_UsesSevenDayWindow(t *testing.T) {
	repo := &fakeReportRepo{}
	_, err := newTestReportService(repo, newBakery()).GetUserStats(context.Background(), cookU1)
	require.NoError(t, err)
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, [2]time.Time{today.AddDate(0, 0, -7), today}, repo.gotRanges[0])

	_, err = newTestReportService(repo, newBakery()).GetUserStats(context.Background(), 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReports_BucketDaysInServiceZone(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	repo := &fakeReportRepo{}
	svc := NewReportService(repo, newBakery(), bangkok).(*reportService)
	// 2024-03-09 18:00 UTC is already 2024-03-10 01:00 in Bangkok.
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC) }

	summary, err := svc.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", summary.SalesLast7Days[6].Date)

	_, err = svc.GetUsageTrends(context.Background(), models.ReportRequestParams{
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, bangkok),
		EndDate:   time.Date(2024, 3, 2, 0, 0, 0, 0, bangkok),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asia/Bangkok", "Asia/Bangkok"}, repo.gotZones)
}

func TestNewReportService_LocalFallsBackToUTC(t *testing.T) {
	repo := &fakeReportRepo{}
	svc := NewReportService(repo, newBakery(), time.Local).(*reportService)
	_, err := svc.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"UTC"}, repo.gotZones)
}

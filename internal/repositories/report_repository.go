package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kitchen_inventory_backend/internal/models"
)

// ReportRepository runs the read-only aggregate queries behind the dashboard and reports.
// Time ranges are half-open: from <= t < to. Day buckets are formatted in zone, an IANA name.
type ReportRepository interface {
	GetDashboardStats(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardStats, error)
	GetDailySales(ctx context.Context, from, to time.Time, zone string) ([]models.DailySales, error)
	GetUsageTrends(ctx context.Context, from, to time.Time, zone string) ([]models.UsageTrend, error)
	GetCostSummary(ctx context.Context, from, to time.Time) ([]models.CostSummaryItem, error)
	GetUserStats(ctx context.Context, userID int64, dayStart, weekStart time.Time) (*models.UserStats, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetDashboardStats(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	query := `SELECT
	    (SELECT COUNT(*) FROM ingredients WHERE quantity <= threshold) AS low_stock_count,
	    (SELECT COALESCE(SUM(m.price * ce.quantity), 0) FROM cooking_events ce JOIN menus m ON ce.menu_id = m.id
	       WHERE ce.cooked_at >= $1 AND ce.cooked_at < $2) AS today_sales,
	    (SELECT COALESCE(SUM(m.price * ce.quantity), 0) FROM cooking_events ce JOIN menus m ON ce.menu_id = m.id) AS total_sales,
	    (SELECT COUNT(*) FROM cooking_events) AS total_orders`
	err := r.db.QueryRowContext(ctx, query, dayStart, dayEnd).Scan(
		&stats.LowStockCount, &stats.TodaySales, &stats.TotalSales, &stats.TotalOrders,
	)
	if err != nil {
		return nil, wrapDBError(err, "getting dashboard stats")
	}

	// Best seller today
	var bestSeller string
	bestSellerQuery := `SELECT m.name
	    FROM cooking_events ce
	    JOIN menus m ON ce.menu_id = m.id
	    WHERE ce.cooked_at >= $1 AND ce.cooked_at < $2
	    GROUP BY ce.menu_id, m.name
	    ORDER BY SUM(ce.quantity) DESC, m.name
	    LIMIT 1`
	err = r.db.QueryRowContext(ctx, bestSellerQuery, dayStart, dayEnd).Scan(&bestSeller)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, wrapDBError(err, "getting best seller today")
	default:
		stats.BestSellerToday = &bestSeller
	}
	return stats, nil
}

// GetDailySales returns only the days that have sales; callers fill the gaps.
func (r *reportRepository) GetDailySales(ctx context.Context, from, to time.Time, zone string) ([]models.DailySales, error) {
	query := `SELECT to_char(ce.cooked_at AT TIME ZONE $3, 'YYYY-MM-DD') AS day, SUM(m.price * ce.quantity) AS sales
	          FROM cooking_events ce
	          JOIN menus m ON ce.menu_id = m.id
	          WHERE ce.cooked_at >= $1 AND ce.cooked_at < $2
	          GROUP BY day
	          ORDER BY day`
	rows, err := r.db.QueryContext(ctx, query, from, to, zone)
	if err != nil {
		return nil, wrapDBError(err, "getting daily sales")
	}
	defer rows.Close()

	sales := []models.DailySales{}
	for rows.Next() {
		var day models.DailySales
		if err := rows.Scan(&day.Date, &day.Sales); err != nil {
			return nil, wrapDBError(err, "scanning daily sales")
		}
		sales = append(sales, day)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating daily sales")
	}
	return sales, nil
}

func (r *reportRepository) GetUsageTrends(ctx context.Context, from, to time.Time, zone string) ([]models.UsageTrend, error) {
	query := `SELECT to_char(created_at AT TIME ZONE $3, 'YYYY-MM-DD') AS day, SUM(ABS(amount)) AS total_usage
	          FROM stock_logs
	          WHERE change_type = 'deduct' AND created_at >= $1 AND created_at < $2
	          GROUP BY day
	          ORDER BY day`
	rows, err := r.db.QueryContext(ctx, query, from, to, zone)
	if err != nil {
		return nil, wrapDBError(err, "getting usage trends")
	}
	defer rows.Close()

	trends := []models.UsageTrend{}
	for rows.Next() {
		var trend models.UsageTrend
		if err := rows.Scan(&trend.Date, &trend.TotalUsage); err != nil {
			return nil, wrapDBError(err, "scanning usage trend")
		}
		trends = append(trends, trend)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating usage trends")
	}
	return trends, nil
}

func (r *reportRepository) GetCostSummary(ctx context.Context, from, to time.Time) ([]models.CostSummaryItem, error) {
	query := `SELECT i.name, SUM(ABS(sl.amount) * i.cost_price) AS total_cost
	          FROM stock_logs sl
	          JOIN ingredients i ON sl.ingredient_id = i.id
	          WHERE sl.change_type = 'deduct' AND sl.created_at >= $1 AND sl.created_at < $2
	          GROUP BY i.name
	          ORDER BY total_cost DESC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, wrapDBError(err, "getting cost summary")
	}
	defer rows.Close()

	items := []models.CostSummaryItem{}
	for rows.Next() {
		var item models.CostSummaryItem
		if err := rows.Scan(&item.IngredientName, &item.TotalCost); err != nil {
			return nil, wrapDBError(err, "scanning cost summary")
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating cost summary")
	}
	return items, nil
}

func (r *reportRepository) GetUserStats(ctx context.Context, userID int64, dayStart, weekStart time.Time) (*models.UserStats, error) {
	stats := &models.UserStats{}
	query := `SELECT
	    COUNT(*) FILTER (WHERE cooked_at >= $2) AS cooked_today,
	    COUNT(*) FILTER (WHERE cooked_at >= $3) AS cooked_this_week
	  FROM cooking_events
	  WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID, dayStart, weekStart).Scan(&stats.CookedToday, &stats.CookedThisWeek); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting stats for user %d", userID))
	}

	var favorite string
	favoriteQuery := `SELECT m.name
	    FROM cooking_events ce
	    JOIN menus m ON ce.menu_id = m.id
	    WHERE ce.user_id = $1
	    GROUP BY ce.menu_id, m.name
	    ORDER BY COUNT(*) DESC, m.name
	    LIMIT 1`
	err := r.db.QueryRowContext(ctx, favoriteQuery, userID).Scan(&favorite)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, wrapDBError(err, fmt.Sprintf("getting favorite menu for user %d", userID))
	default:
		stats.FavoriteMenu = &favorite
	}
	return stats, nil
}

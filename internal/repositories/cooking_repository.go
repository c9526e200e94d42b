package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kitchen_inventory_backend/internal/models"
)

// CookingRepository stores cooking events and serves the cooking history.
type CookingRepository interface {
	InsertCookingEvent(ctx context.Context, executor SQLExecutor, event *models.CookingEvent) (int64, error)
	GetHistory(ctx context.Context, filters models.CookingHistoryFilters) ([]models.CookingHistoryEntry, error)
}

type cookingRepository struct {
	db *sql.DB
}

// NewCookingRepository creates a new instance of CookingRepository.
func NewCookingRepository(db *sql.DB) CookingRepository {
	return &cookingRepository{db: db}
}

func (r *cookingRepository) InsertCookingEvent(ctx context.Context, executor SQLExecutor, event *models.CookingEvent) (int64, error) {
	query := `INSERT INTO cooking_events (user_id, menu_id, quantity, cooked_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query, event.UserID, event.MenuID, event.Quantity, event.CookedAt).Scan(&event.ID)
	if err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("recording cooking event for menu %d", event.MenuID))
	}
	return event.ID, nil
}

// GetHistory lists cooking events newest first. Date bounds are inclusive calendar days.
func (r *cookingRepository) GetHistory(ctx context.Context, filters models.CookingHistoryFilters) ([]models.CookingHistoryEntry, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ce.id, ce.quantity, ce.cooked_at, m.name AS menu_name, u.username AS user_name
	  FROM cooking_events ce
	  JOIN menus m ON ce.menu_id = m.id
	  LEFT JOIN users u ON ce.user_id = u.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("ce.user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("ce.cooked_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("ce.cooked_at < $%d", argCount))
		args = append(args, filters.EndDate.AddDate(0, 0, 1))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY ce.cooked_at DESC, ce.id DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, wrapDBError(err, "getting cooking history")
	}
	defer rows.Close()

	history := []models.CookingHistoryEntry{}
	for rows.Next() {
		var entry models.CookingHistoryEntry
		var userName sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Quantity, &entry.CookedAt, &entry.MenuName, &userName); err != nil {
			return nil, wrapDBError(err, "scanning cooking history entry")
		}
		if userName.Valid {
			name := userName.String
			entry.UserName = &name
		}
		history = append(history, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating cooking history")
	}
	return history, nil
}

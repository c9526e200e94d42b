package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen_inventory_backend/internal/models"

	"github.com/shopspring/decimal"
)

// StockLedger owns every mutation of ingredients.quantity and the append-only stock_logs table.
// All methods run on the executor they are given; callers decide the transaction scope.
type StockLedger interface {
	// LockAndRead reads the current quantity under a row lock held until the enclosing transaction ends.
	LockAndRead(ctx context.Context, executor SQLExecutor, ingredientID int64) (*models.StockLevel, error)
	// Deduct decrements the quantity and appends a deduct entry with a negative amount.
	Deduct(ctx context.Context, executor SQLExecutor, ingredientID int64, amount decimal.Decimal, actorID int64, reason string) error
	// Adjust applies a signed manual change and returns the new quantity.
	Adjust(ctx context.Context, executor SQLExecutor, ingredientID int64, delta decimal.Decimal, actorID int64, changeType models.ChangeType, reason string) (decimal.Decimal, error)
	GetLogs(ctx context.Context, filters models.StockLogFilters) ([]models.StockLog, int, error)
}

type stockLedger struct {
	db *sql.DB
}

// NewStockLedger creates a new instance of StockLedger.
func NewStockLedger(db *sql.DB) StockLedger {
	return &stockLedger{db: db}
}

func (r *stockLedger) LockAndRead(ctx context.Context, executor SQLExecutor, ingredientID int64) (*models.StockLevel, error) {
	level := &models.StockLevel{IngredientID: ingredientID}
	query := `SELECT name, unit, quantity FROM ingredients WHERE id = $1 FOR UPDATE`
	err := executor.QueryRowContext(ctx, query, ingredientID).Scan(&level.Name, &level.Unit, &level.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("locking ingredient %d", ingredientID))
	}
	return level, nil
}

func (r *stockLedger) Deduct(ctx context.Context, executor SQLExecutor, ingredientID int64, amount decimal.Decimal, actorID int64, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("deduct amount for ingredient %d must be positive, got %s", ingredientID, amount)
	}

	// The WHERE clause re-validates the stock even though callers check it under the lock first.
	var newQuantity decimal.Decimal
	query := `UPDATE ingredients
	          SET quantity = quantity - $1, updated_at = $2
	          WHERE id = $3 AND quantity >= $1
	          RETURNING quantity`
	err := executor.QueryRowContext(ctx, query, amount, time.Now(), ingredientID).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.explainMissingUpdate(ctx, executor, ingredientID)
		}
		return wrapDBError(err, fmt.Sprintf("deducting stock for ingredient %d", ingredientID))
	}

	return r.appendLog(ctx, executor, &models.StockLog{
		IngredientID: ingredientID,
		ChangedBy:    actorID,
		ChangeType:   models.ChangeTypeDeduct,
		Amount:       amount.Neg(),
		Description:  reason,
	})
}

func (r *stockLedger) Adjust(ctx context.Context, executor SQLExecutor, ingredientID int64, delta decimal.Decimal, actorID int64, changeType models.ChangeType, reason string) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, fmt.Errorf("adjustment for ingredient %d must not be zero", ingredientID)
	}

	var newQuantity decimal.Decimal
	query := `UPDATE ingredients
	          SET quantity = quantity + $1, updated_at = $2
	          WHERE id = $3 AND quantity + $1 >= 0
	          RETURNING quantity`
	err := executor.QueryRowContext(ctx, query, delta, time.Now(), ingredientID).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, r.explainMissingUpdate(ctx, executor, ingredientID)
		}
		return decimal.Zero, wrapDBError(err, fmt.Sprintf("adjusting stock for ingredient %d", ingredientID))
	}

	err = r.appendLog(ctx, executor, &models.StockLog{
		IngredientID: ingredientID,
		ChangedBy:    actorID,
		ChangeType:   changeType,
		Amount:       delta,
		Description:  reason,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newQuantity, nil
}

// explainMissingUpdate tells apart a missing ingredient from a guarded update that matched no row.
func (r *stockLedger) explainMissingUpdate(ctx context.Context, executor SQLExecutor, ingredientID int64) error {
	var exists bool
	err := executor.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ingredients WHERE id = $1)`, ingredientID).Scan(&exists)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("checking ingredient %d", ingredientID))
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: ingredient %d", ErrInsufficientStock, ingredientID)
}

func (r *stockLedger) appendLog(ctx context.Context, executor SQLExecutor, entry *models.StockLog) error {
	query := `INSERT INTO stock_logs (ingredient_id, changed_by, change_type, amount, description, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		entry.IngredientID, entry.ChangedBy, string(entry.ChangeType), entry.Amount, entry.Description, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("appending stock log for ingredient %d", entry.IngredientID))
	}
	return nil
}

func (r *stockLedger) GetLogs(ctx context.Context, filters models.StockLogFilters) ([]models.StockLog, int, error) {
	logs := []models.StockLog{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sl.id, sl.ingredient_id, sl.changed_by, sl.change_type, sl.amount, sl.description, sl.created_at,
	    i.name AS ingredient_name, u.username,
	    COUNT(*) OVER() AS total_count
	  FROM stock_logs sl
	  JOIN ingredients i ON sl.ingredient_id = i.id
	  LEFT JOIN users u ON sl.changed_by = u.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.IngredientID != nil {
		conditions = append(conditions, fmt.Sprintf("sl.ingredient_id = $%d", argCount))
		args = append(args, *filters.IngredientID)
		argCount++
	}
	if filters.ChangeType != nil && *filters.ChangeType != "" {
		conditions = append(conditions, fmt.Sprintf("sl.change_type = $%d", argCount))
		args = append(args, *filters.ChangeType)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("sl.created_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("sl.created_at < $%d", argCount))
		args = append(args, filters.EndDate.AddDate(0, 0, 1)) // inclusive end day
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY sl.created_at DESC, sl.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "getting stock logs")
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.StockLog
		var changeType string
		var ingredientName, username sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.IngredientID, &entry.ChangedBy, &changeType, &entry.Amount, &entry.Description, &entry.CreatedAt,
			&ingredientName, &username,
			&totalCount,
		); err != nil {
			return nil, 0, wrapDBError(err, "scanning stock log")
		}
		entry.ChangeType = models.ChangeType(changeType)
		if ingredientName.Valid {
			name := ingredientName.String
			entry.IngredientName = &name
		}
		if username.Valid {
			name := username.String
			entry.Username = &name
		}
		logs = append(logs, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, wrapDBError(err, "iterating stock logs")
	}

	return logs, totalCount, nil
}

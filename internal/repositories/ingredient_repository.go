package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen_inventory_backend/internal/models"
)

// IngredientRepository defines the interface for ingredient catalogue operations.
// Quantity is written only at creation; later changes go through StockLedger.
type IngredientRepository interface {
	CreateIngredient(ctx context.Context, executor SQLExecutor, ingredient *models.Ingredient) (int64, error)
	GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error)
	GetIngredients(ctx context.Context, category *string) ([]models.Ingredient, error)
	UpdateIngredient(ctx context.Context, executor SQLExecutor, ingredient *models.Ingredient) error
	DeleteIngredient(ctx context.Context, executor SQLExecutor, id int64) error
	// ListLowStock returns ingredients at or below threshold, lowest quantity first. limit <= 0 means no limit.
	ListLowStock(ctx context.Context, limit int) ([]models.Ingredient, error)
	// ListPurchaseCandidates is ListLowStock restricted to ingredients with a positive threshold.
	ListPurchaseCandidates(ctx context.Context) ([]models.Ingredient, error)
}

type ingredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new instance of IngredientRepository.
func NewIngredientRepository(db *sql.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

const ingredientColumns = `id, name, category, unit, quantity, threshold, cost_price, expiry_date, created_at, updated_at`

func scanIngredient(row scanner) (*models.Ingredient, error) {
	ingredient := &models.Ingredient{}
	var expiry sql.NullTime
	err := row.Scan(
		&ingredient.ID, &ingredient.Name, &ingredient.Category, &ingredient.Unit,
		&ingredient.Quantity, &ingredient.Threshold, &ingredient.CostPrice, &expiry,
		&ingredient.CreatedAt, &ingredient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		ingredient.ExpiryDate = &t
	}
	return ingredient, nil
}

func (r *ingredientRepository) CreateIngredient(ctx context.Context, executor SQLExecutor, ingredient *models.Ingredient) (int64, error) {
	query := `INSERT INTO ingredients (name, category, unit, quantity, threshold, cost_price, expiry_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRowContext(ctx, query,
		ingredient.Name, ingredient.Category, ingredient.Unit,
		ingredient.Quantity, ingredient.Threshold, ingredient.CostPrice, ingredient.ExpiryDate,
		currentTime, currentTime,
	).Scan(&ingredient.ID)
	if err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("creating ingredient '%s'", ingredient.Name))
	}
	ingredient.CreatedAt = currentTime
	ingredient.UpdatedAt = currentTime
	return ingredient.ID, nil
}

func (r *ingredientRepository) GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`
	ingredient, err := scanIngredient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting ingredient by ID %d", id))
	}
	return ingredient, nil
}

func (r *ingredientRepository) GetIngredients(ctx context.Context, category *string) ([]models.Ingredient, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + ingredientColumns + ` FROM ingredients`)
	var args []interface{}
	if category != nil {
		queryBuilder.WriteString(` WHERE category = $1`)
		args = append(args, *category)
	}
	queryBuilder.WriteString(` ORDER BY name`)
	return r.queryIngredients(ctx, queryBuilder.String(), "getting ingredients", args...)
}

// UpdateIngredient writes the descriptive fields only.
func (r *ingredientRepository) UpdateIngredient(ctx context.Context, executor SQLExecutor, ingredient *models.Ingredient) error {
	query := `UPDATE ingredients
	          SET name = $1, category = $2, unit = $3, threshold = $4, cost_price = $5, expiry_date = $6, updated_at = $7
	          WHERE id = $8`
	result, err := executor.ExecContext(ctx, query,
		ingredient.Name, ingredient.Category, ingredient.Unit, ingredient.Threshold, ingredient.CostPrice,
		ingredient.ExpiryDate, time.Now(), ingredient.ID,
	)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating ingredient ID %d", ingredient.ID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIngredient fails with ErrForeignKey while a recipe or ledger entry references the row.
func (r *ingredientRepository) DeleteIngredient(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting ingredient ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ingredientRepository) ListLowStock(ctx context.Context, limit int) ([]models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients
	          WHERE quantity <= threshold
	          ORDER BY quantity ASC, id ASC`
	if limit > 0 {
		return r.queryIngredients(ctx, query+` LIMIT $1`, "listing low stock ingredients", limit)
	}
	return r.queryIngredients(ctx, query, "listing low stock ingredients")
}

func (r *ingredientRepository) ListPurchaseCandidates(ctx context.Context) ([]models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients
	          WHERE quantity <= threshold AND threshold > 0
	          ORDER BY name`
	return r.queryIngredients(ctx, query, "listing purchase candidates")
}

func (r *ingredientRepository) queryIngredients(ctx context.Context, query, action string, args ...interface{}) ([]models.Ingredient, error) {
	ingredients := []models.Ingredient{}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, action)
	}
	defer rows.Close()

	for rows.Next() {
		ingredient, err := scanIngredient(rows)
		if err != nil {
			return nil, wrapDBError(err, action)
		}
		ingredients = append(ingredients, *ingredient)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, action)
	}
	return ingredients, nil
}

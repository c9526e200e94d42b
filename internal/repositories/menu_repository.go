package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kitchen_inventory_backend/internal/models"
)

// RecipeResolver maps a menu to its recipe lines.
type RecipeResolver interface {
	// ResolveRecipe returns the lines in insertion order, or ErrNotFound when the menu has none.
	ResolveRecipe(ctx context.Context, executor SQLExecutor, menuID int64) ([]models.RecipeLine, error)
}

// MenuRepository defines the interface for menu and recipe storage.
type MenuRepository interface {
	RecipeResolver
	CreateMenu(ctx context.Context, executor SQLExecutor, menu *models.Menu) (int64, error)
	GetMenuByID(ctx context.Context, id int64) (*models.Menu, error)
	GetMenus(ctx context.Context) ([]models.Menu, error)
	UpdateMenu(ctx context.Context, executor SQLExecutor, menu *models.Menu) error
	ReplaceRecipe(ctx context.Context, executor SQLExecutor, menuID int64, lines []models.RecipeLine) error
	DeleteMenu(ctx context.Context, executor SQLExecutor, id int64) error
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) ResolveRecipe(ctx context.Context, executor SQLExecutor, menuID int64) ([]models.RecipeLine, error) {
	lines, err := r.queryRecipe(ctx, executor, menuID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}
	return lines, nil
}

func (r *menuRepository) queryRecipe(ctx context.Context, executor SQLExecutor, menuID int64) ([]models.RecipeLine, error) {
	query := `SELECT mi.id, mi.menu_id, mi.ingredient_id, mi.amount, mi.unit, i.name
	          FROM menu_ingredients mi
	          JOIN ingredients i ON mi.ingredient_id = i.id
	          WHERE mi.menu_id = $1
	          ORDER BY mi.id`
	rows, err := executor.QueryContext(ctx, query, menuID)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("resolving recipe for menu %d", menuID))
	}
	defer rows.Close()

	lines := []models.RecipeLine{}
	for rows.Next() {
		var line models.RecipeLine
		if err := rows.Scan(&line.ID, &line.MenuID, &line.IngredientID, &line.Amount, &line.Unit, &line.IngredientName); err != nil {
			return nil, wrapDBError(err, "scanning recipe line")
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating recipe lines")
	}
	return lines, nil
}

func (r *menuRepository) CreateMenu(ctx context.Context, executor SQLExecutor, menu *models.Menu) (int64, error) {
	query := `INSERT INTO menus (name, price, category, image_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRowContext(ctx, query, menu.Name, menu.Price, menu.Category, menu.ImageURL, currentTime, currentTime).Scan(&menu.ID)
	if err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("creating menu '%s'", menu.Name))
	}
	menu.CreatedAt = currentTime
	menu.UpdatedAt = currentTime
	return menu.ID, nil
}

// GetMenuByID returns the menu with its recipe lines.
func (r *menuRepository) GetMenuByID(ctx context.Context, id int64) (*models.Menu, error) {
	menu := &models.Menu{}
	var imageURL sql.NullString
	query := `SELECT id, name, price, category, image_url, created_at, updated_at FROM menus WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&menu.ID, &menu.Name, &menu.Price, &menu.Category, &imageURL, &menu.CreatedAt, &menu.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting menu by ID %d", id))
	}
	if imageURL.Valid {
		menu.ImageURL = &imageURL.String
	}

	menu.Ingredients, err = r.queryRecipe(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return menu, nil
}

// GetMenus lists menus by name with a stock status derived from their recipe ingredients.
func (r *menuRepository) GetMenus(ctx context.Context) ([]models.Menu, error) {
	query := `SELECT m.id, m.name, m.price, m.category, m.image_url, m.created_at, m.updated_at,
	            EXISTS (
	              SELECT 1 FROM menu_ingredients mi
	              JOIN ingredients i ON mi.ingredient_id = i.id
	              WHERE mi.menu_id = m.id AND i.quantity <= i.threshold
	            ) AS has_low_stock
	          FROM menus m
	          ORDER BY m.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError(err, "getting menus")
	}
	defer rows.Close()

	menus := []models.Menu{}
	for rows.Next() {
		var menu models.Menu
		var imageURL sql.NullString
		var hasLowStock bool
		if err := rows.Scan(
			&menu.ID, &menu.Name, &menu.Price, &menu.Category, &imageURL, &menu.CreatedAt, &menu.UpdatedAt, &hasLowStock,
		); err != nil {
			return nil, wrapDBError(err, "scanning menu")
		}
		if imageURL.Valid {
			url := imageURL.String
			menu.ImageURL = &url
		}
		menu.StockStatus = models.StockStatusNormal
		if hasLowStock {
			menu.StockStatus = models.StockStatusLow
		}
		menus = append(menus, menu)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating menus")
	}
	return menus, nil
}

func (r *menuRepository) UpdateMenu(ctx context.Context, executor SQLExecutor, menu *models.Menu) error {
	query := `UPDATE menus SET name = $1, price = $2, category = $3, image_url = $4, updated_at = $5 WHERE id = $6`
	result, err := executor.ExecContext(ctx, query, menu.Name, menu.Price, menu.Category, menu.ImageURL, time.Now(), menu.ID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating menu ID %d", menu.ID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRecipe swaps the whole recipe of a menu. Lines keep the order they are given in.
func (r *menuRepository) ReplaceRecipe(ctx context.Context, executor SQLExecutor, menuID int64, lines []models.RecipeLine) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM menu_ingredients WHERE menu_id = $1`, menuID); err != nil {
		return wrapDBError(err, fmt.Sprintf("clearing recipe of menu %d", menuID))
	}

	query := `INSERT INTO menu_ingredients (menu_id, ingredient_id, amount, unit) VALUES ($1, $2, $3, $4)`
	for _, line := range lines {
		if _, err := executor.ExecContext(ctx, query, menuID, line.IngredientID, line.Amount, line.Unit); err != nil {
			return wrapDBError(err, fmt.Sprintf("adding ingredient %d to menu %d", line.IngredientID, menuID))
		}
	}
	return nil
}

// DeleteMenu fails with ErrForeignKey once the menu has cooking history.
func (r *menuRepository) DeleteMenu(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting menu ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

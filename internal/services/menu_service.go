package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrMenuNotFound = errors.New("menu not found")
	ErrMenuInUse    = errors.New("menu has cooking history")
)

// DefaultMenuCategory is used when a menu is saved without a category.
const DefaultMenuCategory = "general"

// RecipeLineRequest is one ingredient line of a menu write.
type RecipeLineRequest struct {
	IngredientID int64           `json:"ingredient_id"`
	Amount       decimal.Decimal `json:"amount"`
	Unit         string          `json:"unit"`
}

// MenuRequest is used for creating and replacing a menu together with its recipe.
type MenuRequest struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	ImageURL    *string
	Ingredients []RecipeLineRequest
}

// MenuService defines menu and recipe operations.
type MenuService interface {
	CreateMenu(ctx context.Context, req MenuRequest) (*models.Menu, error)
	GetMenus(ctx context.Context) ([]models.Menu, error)
	GetMenuByID(ctx context.Context, id int64) (*models.Menu, error)
	UpdateMenu(ctx context.Context, id int64, req MenuRequest) (*models.Menu, error)
	DeleteMenu(ctx context.Context, id int64) error
}

type menuService struct {
	menuRepo repositories.MenuRepository
	txRunner repositories.TxRunner
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(mr repositories.MenuRepository, txRunner repositories.TxRunner) MenuService {
	return &menuService{menuRepo: mr, txRunner: txRunner}
}

func buildMenu(req MenuRequest) (*models.Menu, []models.RecipeLine, error) {
	menu := &models.Menu{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		Category: strings.TrimSpace(req.Category),
		ImageURL: req.ImageURL,
	}
	if menu.Name == "" {
		return nil, nil, fmt.Errorf("%w: menu name is required", ErrValidation)
	}
	if menu.Price.IsNegative() {
		return nil, nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if menu.Category == "" {
		menu.Category = DefaultMenuCategory
	}

	seen := make(map[int64]bool, len(req.Ingredients))
	lines := make([]models.RecipeLine, 0, len(req.Ingredients))
	for i, item := range req.Ingredients {
		if item.IngredientID <= 0 {
			return nil, nil, fmt.Errorf("%w: ingredients[%d].ingredient_id must be a positive integer", ErrValidation, i)
		}
		if !item.Amount.IsPositive() {
			return nil, nil, fmt.Errorf("%w: ingredients[%d].amount must be greater than zero", ErrValidation, i)
		}
		if seen[item.IngredientID] {
			return nil, nil, fmt.Errorf("%w: ingredient %d appears more than once in the recipe", ErrValidation, item.IngredientID)
		}
		seen[item.IngredientID] = true
		lines = append(lines, models.RecipeLine{
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
			Unit:         strings.TrimSpace(item.Unit),
		})
	}
	return menu, lines, nil
}

// mapRecipeWriteError turns a failed menu write into a service error.
func mapRecipeWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrMenuNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		return fmt.Errorf("%w: recipe references an unknown ingredient", ErrValidation)
	}
	return classifyStoreError(err)
}

func (s *menuService) CreateMenu(ctx context.Context, req MenuRequest) (*models.Menu, error) {
	menu, lines, err := buildMenu(req)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.menuRepo.CreateMenu(ctx, exec, menu); err != nil {
			return err
		}
		return s.menuRepo.ReplaceRecipe(ctx, exec, menu.ID, lines)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create menu: %w", mapRecipeWriteError(err))
	}
	return s.GetMenuByID(ctx, menu.ID)
}

func (s *menuService) GetMenus(ctx context.Context) ([]models.Menu, error) {
	menus, err := s.menuRepo.GetMenus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get menus: %w", classifyStoreError(err))
	}
	return menus, nil
}

func (s *menuService) GetMenuByID(ctx context.Context, id int64) (*models.Menu, error) {
	menu, err := s.menuRepo.GetMenuByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to get menu by ID: %w", classifyStoreError(err))
	}
	return menu, nil
}

// UpdateMenu replaces the menu row and its whole recipe in one transaction.
func (s *menuService) UpdateMenu(ctx context.Context, id int64, req MenuRequest) (*models.Menu, error) {
	menu, lines, err := buildMenu(req)
	if err != nil {
		return nil, err
	}
	menu.ID = id

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.menuRepo.UpdateMenu(ctx, exec, menu); err != nil {
			return err
		}
		return s.menuRepo.ReplaceRecipe(ctx, exec, id, lines)
	})
	if err != nil {
		mapped := mapRecipeWriteError(err)
		if errors.Is(mapped, ErrMenuNotFound) {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update menu: %w", mapped)
	}
	return s.GetMenuByID(ctx, id)
}

func (s *menuService) DeleteMenu(ctx context.Context, id int64) error {
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.menuRepo.DeleteMenu(ctx, exec, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrMenuNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return fmt.Errorf("%w: menu %d", ErrMenuInUse, id)
		}
		return fmt.Errorf("failed to delete menu: %w", classifyStoreError(err))
	}
	return nil
}

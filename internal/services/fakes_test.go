package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// memTx is the executor handed out by memStore. Its embedded interface is never called.
type memTx struct {
	repositories.SQLExecutor
	id   int
	undo []func()
}

// memStore is an in-memory stand-in for the database with per-row locks that are held
// until the owning transaction ends, like SELECT ... FOR UPDATE.
type memStore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	txSeq int

	ingredients map[int64]*models.Ingredient
	recipes     map[int64][]models.RecipeLine
	menus       map[int64]*models.Menu
	owners      map[int64]*memTx

	logs   []models.StockLog
	events []models.CookingEvent

	lockErrs   map[int64]error
	deductErrs map[int64]error
	insertErr  error
	commitErr  error
	afterLock  func(ingredientID int64)

	commits   int
	rollbacks int
	logSeq    int64
	eventSeq  int64
}

func newMemStore() *memStore {
	s := &memStore{
		ingredients: map[int64]*models.Ingredient{},
		recipes:     map[int64][]models.RecipeLine{},
		menus:       map[int64]*models.Menu{},
		owners:      map[int64]*memTx{},
		lockErrs:    map[int64]error{},
		deductErrs:  map[int64]error{},
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStore) addIngredient(id int64, name, unit string, quantity, threshold string) {
	s.ingredients[id] = &models.Ingredient{
		ID:        id,
		Name:      name,
		Unit:      unit,
		Quantity:  decimal.RequireFromString(quantity),
		Threshold: decimal.RequireFromString(threshold),
	}
}

func (s *memStore) addRecipeLine(menuID, ingredientID int64, amount, unit string) {
	lines := s.recipes[menuID]
	s.recipes[menuID] = append(lines, models.RecipeLine{
		ID:             int64(len(lines) + 1),
		MenuID:         menuID,
		IngredientID:   ingredientID,
		Amount:         decimal.RequireFromString(amount),
		Unit:           unit,
		IngredientName: s.ingredients[ingredientID].Name,
	})
}

func (s *memStore) quantity(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingredients[id].Quantity
}

// --- TxRunner ---

func (s *memStore) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: starting transaction: %w", repositories.ErrDatabaseError, err)
	}
	s.mu.Lock()
	s.txSeq++
	tx := &memTx{id: s.txSeq}
	s.mu.Unlock()

	err := fn(tx)
	if err == nil && s.commitErr != nil {
		err = s.commitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.rollbacks++
	} else {
		s.commits++
	}
	for id, owner := range s.owners {
		if owner == tx {
			delete(s.owners, id)
		}
	}
	s.cond.Broadcast()
	return err
}

// lockRow blocks until tx owns the row. Caller holds s.mu.
func (s *memStore) lockRow(tx *memTx, id int64) {
	for {
		owner, locked := s.owners[id]
		if !locked || owner == tx {
			s.owners[id] = tx
			return
		}
		s.cond.Wait()
	}
}

// nextLogID and removeLog are called with s.mu held.
func (s *memStore) nextLogID() int64 {
	s.logSeq++
	return s.logSeq
}

func (s *memStore) removeLog(id int64) {
	kept := s.logs[:0]
	for _, entry := range s.logs {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	s.logs = kept
}

// --- RecipeResolver ---

func (s *memStore) ResolveRecipe(_ context.Context, _ repositories.SQLExecutor, menuID int64) ([]models.RecipeLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.recipes[menuID]
	if len(lines) == 0 {
		return nil, repositories.ErrNotFound
	}
	return append([]models.RecipeLine(nil), lines...), nil
}

// --- StockLedger ---

func (s *memStore) LockAndRead(_ context.Context, exec repositories.SQLExecutor, ingredientID int64) (*models.StockLevel, error) {
	tx := exec.(*memTx)
	s.mu.Lock()
	if err := s.lockErrs[ingredientID]; err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ingredient, ok := s.ingredients[ingredientID]
	if !ok {
		s.mu.Unlock()
		return nil, repositories.ErrNotFound
	}
	s.lockRow(tx, ingredientID)
	level := &models.StockLevel{
		IngredientID: ingredientID,
		Name:         ingredient.Name,
		Unit:         ingredient.Unit,
		Quantity:     ingredient.Quantity,
	}
	hook := s.afterLock
	s.mu.Unlock()

	if hook != nil {
		hook(ingredientID)
	}
	return level, nil
}

func (s *memStore) Deduct(_ context.Context, exec repositories.SQLExecutor, ingredientID int64, amount decimal.Decimal, actorID int64, reason string) error {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deductErrs[ingredientID]; err != nil {
		return err
	}
	ingredient, ok := s.ingredients[ingredientID]
	if !ok {
		return repositories.ErrNotFound
	}
	s.lockRow(tx, ingredientID)
	if ingredient.Quantity.LessThan(amount) {
		return fmt.Errorf("%w: ingredient %d", repositories.ErrInsufficientStock, ingredientID)
	}
	previous := ingredient.Quantity
	ingredient.Quantity = ingredient.Quantity.Sub(amount)
	s.logs = append(s.logs, models.StockLog{
		ID:           s.nextLogID(),
		IngredientID: ingredientID,
		ChangedBy:    actorID,
		ChangeType:   models.ChangeTypeDeduct,
		Amount:       amount.Neg(),
		Description:  reason,
		CreatedAt:    time.Now(),
	})
	logID := s.logs[len(s.logs)-1].ID
	tx.undo = append(tx.undo, func() {
		ingredient.Quantity = previous
		s.removeLog(logID)
	})
	return nil
}

func (s *memStore) Adjust(_ context.Context, exec repositories.SQLExecutor, ingredientID int64, delta decimal.Decimal, actorID int64, changeType models.ChangeType, reason string) (decimal.Decimal, error) {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	ingredient, ok := s.ingredients[ingredientID]
	if !ok {
		return decimal.Zero, repositories.ErrNotFound
	}
	s.lockRow(tx, ingredientID)
	next := ingredient.Quantity.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: ingredient %d", repositories.ErrInsufficientStock, ingredientID)
	}
	previous := ingredient.Quantity
	ingredient.Quantity = next
	s.logs = append(s.logs, models.StockLog{
		ID:           s.nextLogID(),
		IngredientID: ingredientID,
		ChangedBy:    actorID,
		ChangeType:   changeType,
		Amount:       delta,
		Description:  reason,
	})
	logID := s.logs[len(s.logs)-1].ID
	tx.undo = append(tx.undo, func() {
		ingredient.Quantity = previous
		s.removeLog(logID)
	})
	return next, nil
}

func (s *memStore) GetLogs(_ context.Context, _ models.StockLogFilters) ([]models.StockLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StockLog(nil), s.logs...), len(s.logs), nil
}

// --- CookingRepository ---

func (s *memStore) InsertCookingEvent(_ context.Context, exec repositories.SQLExecutor, event *models.CookingEvent) (int64, error) {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.eventSeq++
	event.ID = s.eventSeq
	s.events = append(s.events, *event)
	eventID := event.ID
	tx.undo = append(tx.undo, func() {
		kept := s.events[:0]
		for _, e := range s.events {
			if e.ID != eventID {
				kept = append(kept, e)
			}
		}
		s.events = kept
	})
	return event.ID, nil
}

func (s *memStore) GetHistory(_ context.Context, filters models.CookingHistoryFilters) ([]models.CookingHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := []models.CookingHistoryEntry{}
	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]
		if filters.UserID != nil && event.UserID != *filters.UserID {
			continue
		}
		history = append(history, models.CookingHistoryEntry{ID: event.ID, Quantity: event.Quantity, CookedAt: event.CookedAt})
	}
	return history, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu        sync.Mutex
	events    []models.CookingEvent
	err       error
	onPublish func()
	ctxErrs   []error
	deadlines []bool
}

func (p *recordingPublisher) PublishCookingEvent(ctx context.Context, event models.CookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onPublish != nil {
		p.onPublish()
	}
	_, hasDeadline := ctx.Deadline()
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	p.deadlines = append(p.deadlines, hasDeadline)
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// --- IngredientRepository ---

func (s *memStore) CreateIngredient(_ context.Context, exec repositories.SQLExecutor, ingredient *models.Ingredient) (int64, error) {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ingredients {
		if existing.Name == ingredient.Name {
			return 0, fmt.Errorf("%w: creating ingredient '%s' (constraint: ingredients_name_key)", repositories.ErrDuplicateKey, ingredient.Name)
		}
	}
	var next int64 = 1
	for id := range s.ingredients {
		if id >= next {
			next = id + 1
		}
	}
	ingredient.ID = next
	stored := *ingredient
	s.ingredients[next] = &stored
	tx.undo = append(tx.undo, func() { delete(s.ingredients, next) })
	return next, nil
}

func (s *memStore) GetIngredientByID(_ context.Context, id int64) (*models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ingredient, ok := s.ingredients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *ingredient
	return &copied, nil
}

func (s *memStore) GetIngredients(_ context.Context, category *string) ([]models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ingredients := []models.Ingredient{}
	for _, ingredient := range s.ingredients {
		if category != nil && ingredient.Category != *category {
			continue
		}
		ingredients = append(ingredients, *ingredient)
	}
	return ingredients, nil
}

func (s *memStore) UpdateIngredient(_ context.Context, exec repositories.SQLExecutor, ingredient *models.Ingredient) error {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.ingredients[ingredient.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	previous := *stored
	stored.Name = ingredient.Name
	stored.Category = ingredient.Category
	stored.Unit = ingredient.Unit
	stored.Threshold = ingredient.Threshold
	stored.CostPrice = ingredient.CostPrice
	stored.ExpiryDate = ingredient.ExpiryDate
	tx.undo = append(tx.undo, func() {
		quantity := stored.Quantity
		*stored = previous
		stored.Quantity = quantity
	})
	return nil
}

func (s *memStore) DeleteIngredient(_ context.Context, exec repositories.SQLExecutor, id int64) error {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.ingredients[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, entry := range s.logs {
		if entry.IngredientID == id {
			return fmt.Errorf("%w: deleting ingredient ID %d (constraint: stock_logs_ingredient_id_fkey)", repositories.ErrForeignKey, id)
		}
	}
	for _, lines := range s.recipes {
		for _, line := range lines {
			if line.IngredientID == id {
				return fmt.Errorf("%w: deleting ingredient ID %d (constraint: menu_ingredients_ingredient_id_fkey)", repositories.ErrForeignKey, id)
			}
		}
	}
	delete(s.ingredients, id)
	tx.undo = append(tx.undo, func() { s.ingredients[id] = stored })
	return nil
}

func (s *memStore) ListLowStock(_ context.Context, limit int) ([]models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	low := []models.Ingredient{}
	for _, ingredient := range s.ingredients {
		if ingredient.IsLow() {
			low = append(low, *ingredient)
		}
	}
	sort.Slice(low, func(i, j int) bool {
		if low[i].Quantity.Equal(low[j].Quantity) {
			return low[i].ID < low[j].ID
		}
		return low[i].Quantity.LessThan(low[j].Quantity)
	})
	if limit > 0 && len(low) > limit {
		low = low[:limit]
	}
	return low, nil
}

func (s *memStore) ListPurchaseCandidates(ctx context.Context) ([]models.Ingredient, error) {
	low, err := s.ListLowStock(ctx, 0)
	if err != nil {
		return nil, err
	}
	candidates := []models.Ingredient{}
	for _, ingredient := range low {
		if ingredient.Threshold.IsPositive() {
			candidates = append(candidates, ingredient)
		}
	}
	return candidates, nil
}

// --- MenuRepository ---

func (s *memStore) CreateMenu(_ context.Context, exec repositories.SQLExecutor, menu *models.Menu) (int64, error) {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	var next int64 = 1
	for id := range s.menus {
		if id >= next {
			next = id + 1
		}
	}
	for id := range s.recipes {
		if id >= next {
			next = id + 1
		}
	}
	menu.ID = next
	stored := *menu
	s.menus[next] = &stored
	tx.undo = append(tx.undo, func() { delete(s.menus, next) })
	return next, nil
}

func (s *memStore) GetMenuByID(_ context.Context, id int64) (*models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	menu, ok := s.menus[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *menu
	copied.Ingredients = append([]models.RecipeLine{}, s.recipes[id]...)
	return &copied, nil
}

func (s *memStore) GetMenus(_ context.Context) ([]models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	menus := []models.Menu{}
	for id, menu := range s.menus {
		copied := *menu
		copied.StockStatus = models.StockStatusNormal
		for _, line := range s.recipes[id] {
			if ingredient, ok := s.ingredients[line.IngredientID]; ok && ingredient.IsLow() {
				copied.StockStatus = models.StockStatusLow
			}
		}
		menus = append(menus, copied)
	}
	sort.Slice(menus, func(i, j int) bool { return menus[i].Name < menus[j].Name })
	return menus, nil
}

func (s *memStore) UpdateMenu(_ context.Context, exec repositories.SQLExecutor, menu *models.Menu) error {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.menus[menu.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	previous := *stored
	*stored = *menu
	tx.undo = append(tx.undo, func() { *stored = previous })
	return nil
}

func (s *memStore) ReplaceRecipe(_ context.Context, exec repositories.SQLExecutor, menuID int64, lines []models.RecipeLine) error {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.recipes[menuID]
	replaced := make([]models.RecipeLine, 0, len(lines))
	for i, line := range lines {
		ingredient, ok := s.ingredients[line.IngredientID]
		if !ok {
			return fmt.Errorf("%w: adding ingredient %d to menu %d", repositories.ErrForeignKey, line.IngredientID, menuID)
		}
		line.ID = int64(i + 1)
		line.MenuID = menuID
		line.IngredientName = ingredient.Name
		replaced = append(replaced, line)
	}
	s.recipes[menuID] = replaced
	tx.undo = append(tx.undo, func() { s.recipes[menuID] = previous })
	return nil
}

func (s *memStore) DeleteMenu(_ context.Context, exec repositories.SQLExecutor, id int64) error {
	tx := exec.(*memTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.menus[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, event := range s.events {
		if event.MenuID == id {
			return fmt.Errorf("%w: deleting menu ID %d (constraint: cooking_events_menu_id_fkey)", repositories.ErrForeignKey, id)
		}
	}
	recipe := s.recipes[id]
	delete(s.menus, id)
	delete(s.recipes, id)
	tx.undo = append(tx.undo, func() {
		s.menus[id] = stored
		s.recipes[id] = recipe
	})
	return nil
}

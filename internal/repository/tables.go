package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// Tables serializes every read-modify-write cycle over a Store. All callers in
// the process share one Tables so check-then-write sequences are atomic.
type Tables struct {
	store  Store
	mu     sync.Mutex
	logger *zap.Logger
}

// NewTables wraps store with a single-writer lock.
func NewTables(store Store, logger *zap.Logger) *Tables {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tables{store: store, logger: logger}
}

// View runs fn against a read-only snapshot.
func (t *Tables) View(ctx context.Context, fn func(tx *Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fn(newTx(ctx, t.store, true))
}

// Update runs fn and, when it returns nil, saves every table fn changed.
// Nothing is written when fn fails.
func (t *Tables) Update(ctx context.Context, fn func(tx *Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx := newTx(ctx, t.store, false)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(t.logger)
}

// Tx holds the tables loaded during one View or Update.
type Tx struct {
	ctx      context.Context
	store    Store
	readOnly bool
	loaded   map[Table]bool
	dirty    map[Table]bool

	categories  []models.NutrientCategory
	ingredients []models.Ingredient
	dishes      []models.Dish
	batches     []models.StockBatch
	intake      []models.IntakeRecord
	methods     []models.CookingMethod
	research    []models.Research
}

func newTx(ctx context.Context, store Store, readOnly bool) *Tx {
	return &Tx{
		ctx:      ctx,
		store:    store,
		readOnly: readOnly,
		loaded:   make(map[Table]bool),
		dirty:    make(map[Table]bool),
	}
}

// Categories returns the nutrient category registry.
func (tx *Tx) Categories() ([]models.NutrientCategory, error) {
	if err := loadTable(tx, TableNutrientCategories, &tx.categories); err != nil {
		return nil, err
	}
	return tx.categories, nil
}

// SetCategories replaces the nutrient category registry.
func (tx *Tx) SetCategories(rows []models.NutrientCategory) error {
	return setTable(tx, TableNutrientCategories, &tx.categories, rows)
}

// Ingredients returns the ingredient table.
func (tx *Tx) Ingredients() ([]models.Ingredient, error) {
	if err := loadTable(tx, TableIngredients, &tx.ingredients); err != nil {
		return nil, err
	}
	return tx.ingredients, nil
}

// SetIngredients replaces the ingredient table.
func (tx *Tx) SetIngredients(rows []models.Ingredient) error {
	return setTable(tx, TableIngredients, &tx.ingredients, rows)
}

// Dishes returns the dish table.
func (tx *Tx) Dishes() ([]models.Dish, error) {
	if err := loadTable(tx, TableDishes, &tx.dishes); err != nil {
		return nil, err
	}
	return tx.dishes, nil
}

// SetDishes replaces the dish table.
func (tx *Tx) SetDishes(rows []models.Dish) error {
	return setTable(tx, TableDishes, &tx.dishes, rows)
}

// Batches returns the storaged-ingredient table.
func (tx *Tx) Batches() ([]models.StockBatch, error) {
	if err := loadTable(tx, TableBatches, &tx.batches); err != nil {
		return nil, err
	}
	return tx.batches, nil
}

// SetBatches replaces the storaged-ingredient table.
func (tx *Tx) SetBatches(rows []models.StockBatch) error {
	return setTable(tx, TableBatches, &tx.batches, rows)
}

// Intake returns the intake log.
func (tx *Tx) Intake() ([]models.IntakeRecord, error) {
	if err := loadTable(tx, TableIntake, &tx.intake); err != nil {
		return nil, err
	}
	return tx.intake, nil
}

// SetIntake replaces the intake log.
func (tx *Tx) SetIntake(rows []models.IntakeRecord) error {
	return setTable(tx, TableIntake, &tx.intake, rows)
}

// CookingMethods returns the cooking-methods table.
func (tx *Tx) CookingMethods() ([]models.CookingMethod, error) {
	if err := loadTable(tx, TableCookingMethods, &tx.methods); err != nil {
		return nil, err
	}
	return tx.methods, nil
}

// SetCookingMethods replaces the cooking-methods table.
func (tx *Tx) SetCookingMethods(rows []models.CookingMethod) error {
	return setTable(tx, TableCookingMethods, &tx.methods, rows)
}

// Research returns the research-data table.
func (tx *Tx) Research() ([]models.Research, error) {
	if err := loadTable(tx, TableResearch, &tx.research); err != nil {
		return nil, err
	}
	return tx.research, nil
}

// SetResearch replaces the research-data table.
func (tx *Tx) SetResearch(rows []models.Research) error {
	return setTable(tx, TableResearch, &tx.research, rows)
}

func loadTable[T any](tx *Tx, table Table, dst *[]T) error {
	if tx.loaded[table] {
		return nil
	}

	data, err := tx.store.Load(tx.ctx, table)
	if err != nil {
		return fmt.Errorf("load table %s: %w", table, err)
	}

	var rows []T
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("decode table %s: %w", table, err)
		}
	}

	*dst = rows
	tx.loaded[table] = true
	return nil
}

func setTable[T any](tx *Tx, table Table, dst *[]T, rows []T) error {
	if tx.readOnly {
		return fmt.Errorf("set table %s: %w", table, ErrReadOnly)
	}
	*dst = rows
	tx.loaded[table] = true
	tx.dirty[table] = true
	return nil
}

func (tx *Tx) commit(logger *zap.Logger) error {
	for _, table := range AllTables {
		if !tx.dirty[table] {
			continue
		}

		var rows any
		switch table {
		case TableNutrientCategories:
			rows = nonNil(tx.categories)
		case TableIngredients:
			rows = nonNil(tx.ingredients)
		case TableDishes:
			rows = nonNil(tx.dishes)
		case TableBatches:
			rows = nonNil(tx.batches)
		case TableIntake:
			rows = nonNil(tx.intake)
		case TableCookingMethods:
			rows = nonNil(tx.methods)
		case TableResearch:
			rows = nonNil(tx.research)
		}

		data, err := json.MarshalIndent(rows, "", "    ")
		if err != nil {
			return fmt.Errorf("encode table %s: %w", table, err)
		}
		if err := tx.store.Save(tx.ctx, table, data); err != nil {
			return fmt.Errorf("save table %s: %w", table, err)
		}
		logger.Debug("table saved", zap.String("table", string(table)), zap.Int("bytes", len(data)))
	}
	return nil
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

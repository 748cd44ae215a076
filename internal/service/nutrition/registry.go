package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
)

var (
	// ErrInvalidCategory indicates a category without a name.
	ErrInvalidCategory = errors.New("invalid nutrient category")
	// ErrDuplicateCategory indicates a category name already registered.
	ErrDuplicateCategory = errors.New("nutrient category already exists")
)

// DefaultCategories seeds an empty registry.
var DefaultCategories = []models.NutrientCategory{
	{Name: models.CaloriesCategory, Unit: "kcal"},
	{Name: "Protein", Unit: "g"},
	{Name: "Carbohydrate", Unit: "g"},
	{Name: "Fat", Unit: "g"},
	{Name: "Fiber", Unit: "g"},
}

// Registry manages the open set of nutrient categories.
type Registry struct {
	tables *repository.Tables
	logger *zap.Logger
}

// NewRegistry wires a category registry.
func NewRegistry(tables *repository.Tables, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{tables: tables, logger: logger}
}

// Categories lists every registered category in insertion order.
func (r *Registry) Categories(ctx context.Context) ([]models.NutrientCategory, error) {
	var out []models.NutrientCategory
	err := r.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Categories()
		out = append(out, rows...)
		return err
	})
	return out, err
}

// AddCategory registers a new category. Names are unique.
func (r *Registry) AddCategory(ctx context.Context, name, unit string) (models.NutrientCategory, error) {
	category := models.NutrientCategory{Name: strings.TrimSpace(name), Unit: strings.TrimSpace(unit)}
	if category.Name == "" {
		return models.NutrientCategory{}, fmt.Errorf("%w: name must not be empty", ErrInvalidCategory)
	}
	if canonicalName(category.Name) != category.Name {
		return models.NutrientCategory{}, fmt.Errorf("%w: %q is reserved", ErrInvalidCategory, category.Name)
	}

	err := r.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Categories()
		if err != nil {
			return err
		}
		for _, existing := range rows {
			if existing.Name == category.Name {
				return fmt.Errorf("%w: %s", ErrDuplicateCategory, category.Name)
			}
		}
		return tx.SetCategories(append(rows, category))
	})
	if err != nil {
		return models.NutrientCategory{}, err
	}

	r.logger.Info("nutrient category added", zap.String("name", category.Name), zap.String("unit", category.Unit))
	return category, nil
}

// EnsureDefaults seeds defaults when the registry is empty.
func (r *Registry) EnsureDefaults(ctx context.Context, defaults []models.NutrientCategory) error {
	var seeded bool
	err := r.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Categories()
		if err != nil || len(rows) > 0 {
			return err
		}
		seeded = true
		return tx.SetCategories(append([]models.NutrientCategory(nil), defaults...))
	})
	if err != nil {
		return fmt.Errorf("seed nutrient categories: %w", err)
	}
	if seeded {
		r.logger.Info("nutrient categories seeded", zap.Int("count", len(defaults)))
	}
	return nil
}

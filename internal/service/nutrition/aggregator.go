package nutrition

import (
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// Aggregator computes per-gram nutrient profiles of dishes.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator wires a new aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger}
}

// Aggregate returns the per-gram profile of a dish with the given direct
// composition. Every registered category is reported, at zero if absent.
// Sub-dishes contribute their stored NutritionInfo, so they must already be
// up to date. References that do not resolve contribute nothing.
func (a *Aggregator) Aggregate(
	categories []models.NutrientCategory,
	composition []models.CompositionRef,
	ingredients map[models.IngredientID]models.Ingredient,
	dishes map[models.DishID]models.Dish,
) []models.NutrientAmount {
	sums := make(map[string]float64, len(categories))
	order := make([]string, 0, len(categories))
	for _, category := range categories {
		name := canonicalName(category.Name)
		if _, seen := sums[name]; seen {
			continue
		}
		sums[name] = 0
		order = append(order, name)
	}

	var totalMass float64
	for _, ref := range composition {
		totalMass += ref.AmountG

		var profile []models.NutrientAmount
		switch ref.Kind {
		case models.RefIngredient:
			ingredient, ok := ingredients[models.IngredientID(ref.ID)]
			if !ok {
				a.logger.Warn("skip unknown ingredient reference", zap.Int("ingredient_id", ref.ID))
				continue
			}
			profile = ingredient.Nutrition
		case models.RefDish:
			dish, ok := dishes[models.DishID(ref.ID)]
			if !ok {
				a.logger.Warn("skip unknown dish reference", zap.Int("dish_id", ref.ID))
				continue
			}
			profile = dish.NutritionInfo
		default:
			a.logger.Warn("skip reference with unknown type", zap.String("type", string(ref.Kind)), zap.Int("id", ref.ID))
			continue
		}

		for _, nutrient := range profile {
			sums[canonicalName(nutrient.Name)] += nutrient.AmountPerUnitMass * ref.AmountG
		}
	}

	var extras []string
	known := make(map[string]struct{}, len(order))
	for _, name := range order {
		known[name] = struct{}{}
	}
	for name := range sums {
		if _, ok := known[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	order = append(order, extras...)

	out := make([]models.NutrientAmount, 0, len(order))
	for _, name := range order {
		perGram := 0.0
		if totalMass > 0 {
			perGram = sums[name] / totalMass
		}
		out = append(out, models.NutrientAmount{Name: displayName(name), AmountPerUnitMass: perGram})
	}
	return out
}

// canonicalName folds the dish-level energy label back onto the registry name
// so ingredient and sub-dish contributions accumulate together.
func canonicalName(name string) string {
	if name == models.CaloriesTotalLabel {
		return models.CaloriesCategory
	}
	return name
}

func displayName(name string) string {
	if name == models.CaloriesCategory {
		return models.CaloriesTotalLabel
	}
	return name
}

// IndexIngredients keys ingredients by id.
func IndexIngredients(rows []models.Ingredient) map[models.IngredientID]models.Ingredient {
	index := make(map[models.IngredientID]models.Ingredient, len(rows))
	for _, row := range rows {
		index[row.ID] = row
	}
	return index
}

// IndexDishes keys dishes by id.
func IndexDishes(rows []models.Dish) map[models.DishID]models.Dish {
	index := make(map[models.DishID]models.Dish, len(rows))
	for _, row := range rows {
		index[row.ID] = row
	}
	return index
}

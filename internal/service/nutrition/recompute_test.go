package nutrition

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

func TestTopologicalOrderPutsSubDishesFirst(t *testing.T) {
	dishes := []models.Dish{
		{ID: 3, RequiredIngredients: []models.CompositionRef{models.DishRef(2, 10)}},
		{ID: 2, RequiredIngredients: []models.CompositionRef{models.DishRef(1, 10)}},
		{ID: 1, RequiredIngredients: []models.CompositionRef{models.IngredientRef(1, 10)}},
	}

	order, err := TopologicalOrder(dishes)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !reflect.DeepEqual(order, []models.DishID{1, 2, 3}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestTopologicalOrderIgnoresMissingDishes(t *testing.T) {
	dishes := []models.Dish{{ID: 1, RequiredIngredients: []models.CompositionRef{models.DishRef(9, 10)}}}

	order, err := TopologicalOrder(dishes)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestTopologicalOrderRejectsCycle(t *testing.T) {
	dishes := []models.Dish{
		{ID: 1, RequiredIngredients: []models.CompositionRef{models.DishRef(2, 10)}},
		{ID: 2, RequiredIngredients: []models.CompositionRef{models.DishRef(1, 10)}},
		{ID: 3, RequiredIngredients: []models.CompositionRef{models.IngredientRef(1, 10)}},
	}

	if _, err := TopologicalOrder(dishes); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestRecomputeFillsNestedDishes(t *testing.T) {
	categories, ingredients, dishes := riceFixture()
	// Parent listed before its sub-dish to exercise ordering.
	dishes = []models.Dish{dishes[1], dishes[0]}

	updated, err := NewAggregator(nil).Recompute(categories, ingredients, dishes, nil)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if updated[0].ID != 2 || updated[1].ID != 1 {
		t.Fatalf("expected original order preserved, got %d, %d", updated[0].ID, updated[1].ID)
	}
	if got := amountOf(t, updated[0].NutritionInfo, models.CaloriesTotalLabel); !approx(got, 1.34) {
		t.Fatalf("expected 1.34, got %v", got)
	}
	if got := amountOf(t, updated[1].NutritionInfo, models.CaloriesTotalLabel); !approx(got, 1.3) {
		t.Fatalf("expected 1.3, got %v", got)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	categories, ingredients, dishes := riceFixture()
	agg := NewAggregator(nil)

	first, err := agg.Recompute(categories, ingredients, dishes, nil)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	second, err := agg.Recompute(categories, ingredients, first, nil)
	if err != nil {
		t.Fatalf("recompute again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second pass changed dishes:\n%+v\n%+v", first, second)
	}
}

func TestRecomputeKeepsOverrides(t *testing.T) {
	categories, ingredients, dishes := riceFixture()
	dishes[0].NutritionInfo = []models.NutrientAmount{{Name: models.CaloriesTotalLabel, AmountPerUnitMass: 2}}

	updated, err := NewAggregator(nil).Recompute(categories, ingredients, dishes, map[models.DishID]bool{1: true})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got := amountOf(t, updated[0].NutritionInfo, models.CaloriesTotalLabel); got != 2 {
		t.Fatalf("override replaced: %v", got)
	}
	// (2*200 + 1.5*50) / 250
	if got := amountOf(t, updated[1].NutritionInfo, models.CaloriesTotalLabel); !approx(got, 475.0/250) {
		t.Fatalf("expected parent to use override, got %v", got)
	}
}

package nutrition

import (
	"fmt"
	"sort"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// TopologicalOrder orders dishes so that every dish comes after the dishes it
// references. References to missing dishes are ignored. A cycle is an error
// naming the dishes that could not be ordered.
func TopologicalOrder(dishes []models.Dish) ([]models.DishID, error) {
	exists := make(map[models.DishID]bool, len(dishes))
	for _, dish := range dishes {
		exists[dish.ID] = true
	}

	pending := make(map[models.DishID]int, len(dishes))
	dependents := make(map[models.DishID][]models.DishID)
	for _, dish := range dishes {
		if _, seen := pending[dish.ID]; seen {
			continue
		}
		pending[dish.ID] = 0
		subs := make(map[models.DishID]bool)
		for _, sub := range dish.SubDishes() {
			if !exists[sub] || subs[sub] {
				continue
			}
			subs[sub] = true
			pending[dish.ID]++
			dependents[sub] = append(dependents[sub], dish.ID)
		}
	}

	var queue []models.DishID
	for _, dish := range dishes {
		if n, ok := pending[dish.ID]; ok && n == 0 {
			queue = append(queue, dish.ID)
			pending[dish.ID] = -1
		}
	}

	order := make([]models.DishID, 0, len(pending))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, parent := range dependents[id] {
			pending[parent]--
			if pending[parent] == 0 {
				queue = append(queue, parent)
				pending[parent] = -1
			}
		}
	}

	if len(order) < len(pending) {
		var stuck []models.DishID
		for id, n := range pending {
			if n > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Slice(stuck, func(i, j int) bool { return stuck[i] < stuck[j] })
		return nil, fmt.Errorf("%w: dishes %v", ErrCycle, stuck)
	}
	return order, nil
}

// Recompute reaggregates every dish in dependency order and returns the dishes
// in their original order. Dishes listed in keep retain their stored
// NutritionInfo but still feed the dishes that reference them.
func (a *Aggregator) Recompute(
	categories []models.NutrientCategory,
	ingredients []models.Ingredient,
	dishes []models.Dish,
	keep map[models.DishID]bool,
) ([]models.Dish, error) {
	order, err := TopologicalOrder(dishes)
	if err != nil {
		return nil, err
	}

	ingredientIndex := IndexIngredients(ingredients)
	dishIndex := IndexDishes(dishes)
	for _, id := range order {
		if keep[id] {
			continue
		}
		dish := dishIndex[id]
		dish.NutritionInfo = a.Aggregate(categories, dish.RequiredIngredients, ingredientIndex, dishIndex)
		dishIndex[id] = dish
	}

	out := make([]models.Dish, len(dishes))
	for i, dish := range dishes {
		out[i] = dishIndex[dish.ID]
	}
	return out, nil
}

package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

var (
	// ErrCycle indicates a dish references itself directly or transitively.
	ErrCycle = errors.New("dish composition cycle")
	// ErrDishNotFound indicates a dish id does not resolve.
	ErrDishNotFound = errors.New("dish not found")
	// ErrUnknownRefKind indicates a composition reference with an unsupported type.
	ErrUnknownRefKind = errors.New("unknown composition reference type")
)

// Resolver flattens dish recipes into base-ingredient masses.
//
// By default a referenced sub-dish contributes its whole recipe verbatim,
// whatever mass the parent asks for. With ScaleSubDishes the sub-recipe is
// scaled by requested mass / sub-dish total mass.
type Resolver struct {
	ScaleSubDishes bool
}

// ResolveBaseIngredients returns grams per base ingredient for dish id.
// Each sub-dish is flattened once per call and reused wherever it is shared.
func (r Resolver) ResolveBaseIngredients(id models.DishID, dishes map[models.DishID]models.Dish) (map[models.IngredientID]float64, error) {
	resolved, err := r.resolve(id, dishes, make(map[models.DishID]bool), nil, make(map[models.DishID]map[models.IngredientID]float64))
	if err != nil {
		return nil, err
	}
	out := make(map[models.IngredientID]float64, len(resolved))
	for ingredientID, grams := range resolved {
		out[ingredientID] = grams
	}
	return out, nil
}

// resolve flattens dish id at unit scale. Only fully resolved dishes enter
// memo, so a memo hit can never be part of the current path.
func (r Resolver) resolve(
	id models.DishID,
	dishes map[models.DishID]models.Dish,
	onPath map[models.DishID]bool,
	path []models.DishID,
	memo map[models.DishID]map[models.IngredientID]float64,
) (map[models.IngredientID]float64, error) {
	path = append(path, id)
	if onPath[id] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, formatPath(path))
	}
	if resolved, ok := memo[id]; ok {
		return resolved, nil
	}

	dish, ok := dishes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDishNotFound, id)
	}

	onPath[id] = true
	defer delete(onPath, id)

	out := make(map[models.IngredientID]float64)
	for _, ref := range dish.RequiredIngredients {
		switch ref.Kind {
		case models.RefIngredient:
			out[models.IngredientID(ref.ID)] += ref.AmountG
		case models.RefDish:
			sub, err := r.resolve(models.DishID(ref.ID), dishes, onPath, path, memo)
			if err != nil {
				return nil, err
			}
			factor := r.subFactor(ref, dishes)
			for ingredientID, grams := range sub {
				out[ingredientID] += grams * factor
			}
		default:
			return nil, fmt.Errorf("%w: %q in dish %d", ErrUnknownRefKind, ref.Kind, id)
		}
	}
	memo[id] = out
	return out, nil
}

func (r Resolver) subFactor(ref models.CompositionRef, dishes map[models.DishID]models.Dish) float64 {
	if !r.ScaleSubDishes {
		return 1
	}
	mass := dishes[models.DishID(ref.ID)].TotalMass()
	if mass <= 0 {
		return 0
	}
	return ref.AmountG / mass
}

func formatPath(path []models.DishID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " -> ")
}

package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidComposition indicates a recipe line with an unknown type or an
// unusable mass.
var ErrInvalidComposition = errors.New("invalid composition")

// DishID identifies a row of the dish table.
type DishID int

// RefKind tags what a composition reference points at.
type RefKind string

const (
	RefIngredient RefKind = "ingredient"
	RefDish       RefKind = "dish"
)

// Valid reports whether k is a known reference kind.
func (k RefKind) Valid() bool {
	return k == RefIngredient || k == RefDish
}

// CompositionRef is one line of a recipe: an ingredient or another dish, with
// a mass in grams. ID is an IngredientID or a DishID depending on Kind.
type CompositionRef struct {
	Kind    RefKind `json:"type"`
	ID      int     `json:"id"`
	AmountG float64 `json:"amount_g"`
}

// Validate checks the reference kind and that AmountG is a finite, non-negative mass.
func (r CompositionRef) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown composition type %q", ErrInvalidComposition, r.Kind)
	}
	if r.AmountG < 0 || math.IsNaN(r.AmountG) || math.IsInf(r.AmountG, 0) {
		return fmt.Errorf("%w: amount_g of %s %d must be a non-negative number, got %v", ErrInvalidComposition, r.Kind, r.ID, r.AmountG)
	}
	return nil
}

// ValidateComposition validates every line of a recipe.
func ValidateComposition(refs []CompositionRef) error {
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IngredientRef builds a reference to a base ingredient.
func IngredientRef(id IngredientID, grams float64) CompositionRef {
	return CompositionRef{Kind: RefIngredient, ID: int(id), AmountG: grams}
}

// DishRef builds a reference to another dish.
func DishRef(id DishID, grams float64) CompositionRef {
	return CompositionRef{Kind: RefDish, ID: int(id), AmountG: grams}
}

// Dish is a recipe. NutritionInfo is derived from RequiredIngredients unless
// it was stored as an explicit override.
type Dish struct {
	ID                  DishID           `json:"id"`
	Name                LocalizedText    `json:"name"`
	ImageURL            string           `json:"image_url,omitempty"`
	RequiredIngredients []CompositionRef `json:"required_ingredients"`
	CookingMethodIDs    []int            `json:"cooking-method-ids"`
	CookingInstructions LocalizedText    `json:"cooking_instructions,omitempty"`
	NutritionInfo       []NutrientAmount `json:"nutrition_info"`
}

// TotalMass sums the direct composition masses in grams.
func (d Dish) TotalMass() float64 {
	var total float64
	for _, ref := range d.RequiredIngredients {
		total += ref.AmountG
	}
	return total
}

// SubDishes returns the ids of dishes referenced directly by d.
func (d Dish) SubDishes() []DishID {
	var ids []DishID
	for _, ref := range d.RequiredIngredients {
		if ref.Kind == RefDish {
			ids = append(ids, DishID(ref.ID))
		}
	}
	return ids
}

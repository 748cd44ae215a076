package stock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrNotProducible      = errors.New("ingredient is not producible")
	ErrInvalidDate        = errors.New("invalid date")
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidMode        = errors.New("invalid stock mode")
	ErrInvalidMass        = errors.New("invalid mass")
	ErrInvalidServings    = errors.New("servings must be positive")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// Shortage describes one ingredient that cannot cover its requirement.
type Shortage struct {
	IngredientID models.IngredientID `json:"ingredient_id"`
	NeededG      float64             `json:"needed_g"`
	AvailableG   float64             `json:"available_g"`
}

// InsufficientStockError lists every short ingredient of a rejected
// consumption. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	DishID    models.DishID
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("ingredient %d needs %.2f g, %.2f g available", s.IngredientID, s.NeededG, s.AvailableG)
	}
	return fmt.Sprintf("insufficient stock for dish %d: %s", e.DishID, strings.Join(parts, "; "))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
	"github.com/mamadbah2/pantry/internal/service/nutrition"
)

var (
	// ErrInvalidInput indicates a payload that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIngredientNotFound indicates an unknown ingredient id.
	ErrIngredientNotFound = errors.New("ingredient not found")
	// ErrDishNotFound indicates an unknown dish id.
	ErrDishNotFound = errors.New("dish not found")
)

// IngredientInput is the editable part of an ingredient.
type IngredientInput struct {
	Name           models.LocalizedText    `json:"name"`
	ResearchIDs    []int                   `json:"research_ids"`
	Nutrition      []models.NutrientAmount `json:"nutrition"`
	ProductionTime models.ProductionTime   `json:"production_time"`
}

// DishInput is the editable part of a dish. A non-empty NutritionOverride is
// stored verbatim instead of aggregating RequiredIngredients.
type DishInput struct {
	Name                models.LocalizedText    `json:"name"`
	ImageURL            string                  `json:"image_url"`
	RequiredIngredients []models.CompositionRef `json:"required_ingredients"`
	CookingMethodIDs    []int                   `json:"cooking-method-ids"`
	CookingInstructions models.LocalizedText    `json:"cooking_instructions"`
	NutritionOverride   []models.NutrientAmount `json:"nutrition_override,omitempty"`
}

// Service manages the ingredient and dish knowledge base.
type Service struct {
	tables    *repository.Tables
	nutrition *nutrition.Service
	logger    *zap.Logger
}

// NewService wires a catalog service.
func NewService(tables *repository.Tables, nutritionSvc *nutrition.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{tables: tables, nutrition: nutritionSvc, logger: logger}
}

// Ingredients lists every ingredient.
func (s *Service) Ingredients(ctx context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Ingredients()
		out = append(out, rows...)
		return err
	})
	return out, err
}

// Ingredient fetches one ingredient.
func (s *Service) Ingredient(ctx context.Context, id models.IngredientID) (models.Ingredient, error) {
	var out models.Ingredient
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Ingredients()
		if err != nil {
			return err
		}
		idx := findIngredient(rows, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrIngredientNotFound, id)
		}
		out = rows[idx]
		return nil
	})
	return out, err
}

// AddIngredient validates and stores a new ingredient.
func (s *Service) AddIngredient(ctx context.Context, in IngredientInput) (models.IngredientID, error) {
	if err := validateIngredient(in); err != nil {
		return 0, err
	}

	var id models.IngredientID
	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Ingredients()
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID > id {
				id = row.ID
			}
		}
		id++
		return tx.SetIngredients(append(rows, ingredientFromInput(id, in)))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("ingredient added", zap.Int("ingredient_id", int(id)), zap.String("name", in.Name.Display()))
	return id, nil
}

// UpdateIngredient fully replaces an ingredient and refreshes every dish so no
// stored nutrition is left stale.
func (s *Service) UpdateIngredient(ctx context.Context, id models.IngredientID, in IngredientInput) error {
	if err := validateIngredient(in); err != nil {
		return err
	}

	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Ingredients()
		if err != nil {
			return err
		}
		idx := findIngredient(rows, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrIngredientNotFound, id)
		}
		rows[idx] = ingredientFromInput(id, in)
		if err := tx.SetIngredients(rows); err != nil {
			return err
		}
		return s.nutrition.RecomputeIn(tx, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Info("ingredient updated", zap.Int("ingredient_id", int(id)))
	return nil
}

// Dishes lists every dish.
func (s *Service) Dishes(ctx context.Context) ([]models.Dish, error) {
	var out []models.Dish
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Dishes()
		out = append(out, rows...)
		return err
	})
	return out, err
}

// Dish fetches one dish.
func (s *Service) Dish(ctx context.Context, id models.DishID) (models.Dish, error) {
	var out models.Dish
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Dishes()
		if err != nil {
			return err
		}
		idx := findDish(rows, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrDishNotFound, id)
		}
		out = rows[idx]
		return nil
	})
	return out, err
}

// AddDish stores a new dish with freshly aggregated nutrition.
func (s *Service) AddDish(ctx context.Context, in DishInput) (models.DishID, error) {
	if err := validateDish(in); err != nil {
		return 0, err
	}

	var id models.DishID
	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Dishes()
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID > id {
				id = row.ID
			}
		}
		id++

		dish := dishFromInput(id, in)
		candidate := append(append([]models.Dish(nil), rows...), dish)
		if _, err := nutrition.TopologicalOrder(candidate); err != nil {
			return err
		}
		if len(in.NutritionOverride) == 0 {
			if dish.NutritionInfo, err = s.nutrition.AggregateIn(tx, dish.RequiredIngredients); err != nil {
				return err
			}
		}
		return tx.SetDishes(append(rows, dish))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("dish added",
		zap.Int("dish_id", int(id)),
		zap.String("name", in.Name.Display()),
		zap.Bool("nutrition_override", len(in.NutritionOverride) > 0))
	return id, nil
}

// UpdateDish replaces a dish and refreshes the nutrition of the whole dish
// graph. An override keeps the supplied nutrition for this dish only.
func (s *Service) UpdateDish(ctx context.Context, id models.DishID, in DishInput) error {
	if err := validateDish(in); err != nil {
		return err
	}

	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Dishes()
		if err != nil {
			return err
		}
		idx := findDish(rows, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrDishNotFound, id)
		}
		rows[idx] = dishFromInput(id, in)
		if err := tx.SetDishes(rows); err != nil {
			return err
		}

		var keep map[models.DishID]bool
		if len(in.NutritionOverride) > 0 {
			keep = map[models.DishID]bool{id: true}
		}
		return s.nutrition.RecomputeIn(tx, keep)
	})
	if err != nil {
		return err
	}

	s.logger.Info("dish updated", zap.Int("dish_id", int(id)), zap.Bool("nutrition_override", len(in.NutritionOverride) > 0))
	return nil
}

func validateIngredient(in IngredientInput) error {
	if in.Name.Display() == "" {
		return fmt.Errorf("%w: ingredient name must not be empty", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(in.Nutrition))
	for _, nutrient := range in.Nutrition {
		name := strings.TrimSpace(nutrient.Name)
		if name == "" {
			return fmt.Errorf("%w: nutrient name must not be empty", ErrInvalidInput)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate nutrient %q", ErrInvalidInput, name)
		}
		seen[name] = true
		if nutrient.AmountPerUnitMass < 0 {
			return fmt.Errorf("%w: nutrient %q must not be negative", ErrInvalidInput, name)
		}
	}

	pt := in.ProductionTime
	if pt.Producible {
		if pt.MinDays == nil || pt.MaxDays == nil {
			return fmt.Errorf("%w: producible ingredients need min and max production days", ErrInvalidInput)
		}
		if *pt.MinDays < 0 || *pt.MaxDays < *pt.MinDays {
			return fmt.Errorf("%w: production days must satisfy 0 <= min <= max", ErrInvalidInput)
		}
	}
	return nil
}

func validateDish(in DishInput) error {
	if in.Name.Display() == "" {
		return fmt.Errorf("%w: dish name must not be empty", ErrInvalidInput)
	}
	if err := models.ValidateComposition(in.RequiredIngredients); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func ingredientFromInput(id models.IngredientID, in IngredientInput) models.Ingredient {
	nutrients := make([]models.NutrientAmount, len(in.Nutrition))
	for i, nutrient := range in.Nutrition {
		nutrients[i] = models.NutrientAmount{Name: strings.TrimSpace(nutrient.Name), AmountPerUnitMass: nutrient.AmountPerUnitMass}
	}

	pt := in.ProductionTime
	if !pt.Producible {
		pt = models.ProductionTime{}
	}

	return models.Ingredient{
		ID:             id,
		Name:           in.Name,
		ResearchIDs:    append([]int(nil), in.ResearchIDs...),
		Nutrition:      nutrients,
		ProductionTime: pt,
	}
}

func dishFromInput(id models.DishID, in DishInput) models.Dish {
	return models.Dish{
		ID:                  id,
		Name:                in.Name,
		ImageURL:            in.ImageURL,
		RequiredIngredients: append([]models.CompositionRef(nil), in.RequiredIngredients...),
		CookingMethodIDs:    append([]int(nil), in.CookingMethodIDs...),
		CookingInstructions: in.CookingInstructions,
		NutritionInfo:       append([]models.NutrientAmount(nil), in.NutritionOverride...),
	}
}

func findIngredient(rows []models.Ingredient, id models.IngredientID) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func findDish(rows []models.Dish, id models.DishID) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

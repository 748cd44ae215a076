package nutrition

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
)

// Service exposes composition resolution and nutrition aggregation over the
// persisted tables.
type Service struct {
	tables     *repository.Tables
	aggregator *Aggregator
	resolver   Resolver
	logger     *zap.Logger
}

// NewService wires a nutrition service.
func NewService(tables *repository.Tables, resolver Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tables:     tables,
		aggregator: NewAggregator(logger.Named("aggregator")),
		resolver:   resolver,
		logger:     logger,
	}
}

// Resolver returns the composition resolver in use.
func (s *Service) Resolver() Resolver {
	return s.resolver
}

// ResolveBaseIngredients flattens the recipe of dish id into grams per base ingredient.
func (s *Service) ResolveBaseIngredients(ctx context.Context, id models.DishID) (map[models.IngredientID]float64, error) {
	var out map[models.IngredientID]float64
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		dishes, err := tx.Dishes()
		if err != nil {
			return err
		}
		out, err = s.resolver.ResolveBaseIngredients(id, IndexDishes(dishes))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolve dish %d: %w", id, err)
	}
	return out, nil
}

// AggregateNutrition computes the per-gram profile of an arbitrary composition.
// Unknown types and negative masses are rejected with models.ErrInvalidComposition.
func (s *Service) AggregateNutrition(ctx context.Context, composition []models.CompositionRef) ([]models.NutrientAmount, error) {
	if err := models.ValidateComposition(composition); err != nil {
		return nil, err
	}
	var out []models.NutrientAmount
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		var err error
		out, err = s.AggregateIn(tx, composition)
		return err
	})
	return out, err
}

// AggregateIn computes a per-gram profile using the tables of tx.
func (s *Service) AggregateIn(tx *repository.Tx, composition []models.CompositionRef) ([]models.NutrientAmount, error) {
	categories, err := tx.Categories()
	if err != nil {
		return nil, err
	}
	ingredients, err := tx.Ingredients()
	if err != nil {
		return nil, err
	}
	dishes, err := tx.Dishes()
	if err != nil {
		return nil, err
	}
	return s.aggregator.Aggregate(categories, composition, IndexIngredients(ingredients), IndexDishes(dishes)), nil
}

// RecomputeIn reaggregates every dish not listed in keep and stages the
// result in tx.
func (s *Service) RecomputeIn(tx *repository.Tx, keep map[models.DishID]bool) error {
	categories, err := tx.Categories()
	if err != nil {
		return err
	}
	ingredients, err := tx.Ingredients()
	if err != nil {
		return err
	}
	dishes, err := tx.Dishes()
	if err != nil {
		return err
	}

	updated, err := s.aggregator.Recompute(categories, ingredients, dishes, keep)
	if err != nil {
		return err
	}
	return tx.SetDishes(updated)
}

// RecomputeAllDishes refreshes the nutrition of every dish. It is idempotent
// and meant to run at startup and on a schedule.
func (s *Service) RecomputeAllDishes(ctx context.Context) error {
	var count int
	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		if err := s.RecomputeIn(tx, nil); err != nil {
			return err
		}
		dishes, err := tx.Dishes()
		count = len(dishes)
		return err
	})
	if err != nil {
		return fmt.Errorf("recompute dishes: %w", err)
	}

	s.logger.Info("dish nutrition recomputed", zap.Int("dishes", count))
	return nil
}

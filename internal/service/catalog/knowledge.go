package catalog

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
	// ErrCookingMethodNotFound indicates an unknown cooking method id.
	ErrCookingMethodNotFound = errors.New("cooking method not found")
	// ErrResearchNotFound indicates an unknown research id.
	ErrResearchNotFound = errors.New("research not found")
)

// CookingMethodInput is the editable part of a cooking method.
type CookingMethodInput struct {
	Name        models.LocalizedText `json:"name"`
	Description models.LocalizedText `json:"description"`
	ResearchIDs []int                `json:"research_ids"`
}

// ResearchInput is the editable part of a research entry.
type ResearchInput struct {
	ReferenceData models.ResearchReference `json:"reference_data"`
	Summary       models.LocalizedText     `json:"summary"`
}

// ResearchLinks is a research entry with everything citing it.
type ResearchLinks struct {
	Research       models.Research        `json:"research"`
	Ingredients    []models.Ingredient    `json:"ingredients"`
	CookingMethods []models.CookingMethod `json:"cooking_methods"`
}

// CookingMethods lists every cooking method.
func (s *Service) CookingMethods(ctx context.Context) ([]models.CookingMethod, error) {
	var out []models.CookingMethod
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.CookingMethods()
		out = append(out, rows...)
		return err
	})
	return out, err
}

// AddCookingMethod validates and stores a new cooking method.
func (s *Service) AddCookingMethod(ctx context.Context, in CookingMethodInput) (models.CookingMethodID, error) {
	if in.Name.Display() == "" {
		return 0, fmt.Errorf("%w: cooking method name must not be empty", ErrInvalidInput)
	}

	var id models.CookingMethodID
	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.CookingMethods()
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID > id {
				id = row.ID
			}
		}
		id++
		return tx.SetCookingMethods(append(rows, models.CookingMethod{
			ID:          id,
			Name:        in.Name,
			Description: in.Description,
			ResearchIDs: append([]int(nil), in.ResearchIDs...),
		}))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("cooking method added", zap.Int("cooking_method_id", int(id)), zap.String("name", in.Name.Display()))
	return id, nil
}

// Research lists every research entry.
func (s *Service) Research(ctx context.Context) ([]models.Research, error) {
	var out []models.Research
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Research()
		out = append(out, rows...)
		return err
	})
	return out, err
}

// AddResearch stores a research entry. It needs a title or a link.
func (s *Service) AddResearch(ctx context.Context, in ResearchInput) (models.ResearchID, error) {
	ref := in.ReferenceData
	ref.Title = strings.TrimSpace(ref.Title)
	ref.Link = strings.TrimSpace(ref.Link)
	if ref.Title == "" && ref.Link == "" {
		return 0, fmt.Errorf("%w: research needs a title or a link", ErrInvalidInput)
	}

	var id models.ResearchID
	err := s.tables.Update(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Research()
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.ID > id {
				id = row.ID
			}
		}
		id++
		return tx.SetResearch(append(rows, models.Research{ID: id, ReferenceData: ref, Summary: in.Summary}))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("research added", zap.Int("research_id", int(id)), zap.String("title", ref.Title))
	return id, nil
}

// ResearchLinks returns research id with the ingredients and cooking methods
// listing it in research_ids.
func (s *Service) ResearchLinks(ctx context.Context, id models.ResearchID) (ResearchLinks, error) {
	var out ResearchLinks
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		research, err := tx.Research()
		if err != nil {
			return err
		}
		found := false
		for _, row := range research {
			if row.ID == id {
				out.Research, found = row, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %d", ErrResearchNotFound, id)
		}

		ingredients, err := tx.Ingredients()
		if err != nil {
			return err
		}
		for _, row := range ingredients {
			if models.HasResearch(row.ResearchIDs, id) {
				out.Ingredients = append(out.Ingredients, row)
			}
		}

		methods, err := tx.CookingMethods()
		if err != nil {
			return err
		}
		for _, row := range methods {
			if models.HasResearch(row.ResearchIDs, id) {
				out.CookingMethods = append(out.CookingMethods, row)
			}
		}
		return nil
	})
	return out, err
}

// DishesUsingIngredient lists the dishes whose recipe references ingredient
// id directly.
func (s *Service) DishesUsingIngredient(ctx context.Context, id models.IngredientID) ([]models.Dish, error) {
	var out []models.Dish
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		ingredients, err := tx.Ingredients()
		if err != nil {
			return err
		}
		if findIngredient(ingredients, id) < 0 {
			return fmt.Errorf("%w: %d", ErrIngredientNotFound, id)
		}

		dishes, err := tx.Dishes()
		if err != nil {
			return err
		}
		for _, dish := range dishes {
			for _, ref := range dish.RequiredIngredients {
				if ref.Kind == models.RefIngredient && models.IngredientID(ref.ID) == id {
					out = append(out, dish)
					break
				}
			}
		}
		return nil
	})
	return out, err
}

// DishesUsingCookingMethod lists the dishes listing cooking method id.
func (s *Service) DishesUsingCookingMethod(ctx context.Context, id models.CookingMethodID) ([]models.Dish, error) {
	var out []models.Dish
	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		methods, err := tx.CookingMethods()
		if err != nil {
			return err
		}
		known := false
		for _, row := range methods {
			if row.ID == id {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %d", ErrCookingMethodNotFound, id)
		}

		dishes, err := tx.Dishes()
		if err != nil {
			return err
		}
		for _, dish := range dishes {
			for _, methodID := range dish.CookingMethodIDs {
				if models.CookingMethodID(methodID) == id {
					out = append(out, dish)
					break
				}
			}
		}
		return nil
	})
	return out, err
}

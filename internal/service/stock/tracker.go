package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
	"github.com/mamadbah2/pantry/internal/service/nutrition"
)

// massEpsilon absorbs float rounding when recipe lines for one ingredient are
// summed and compared against stock.
const massEpsilon = 1e-9

// CreateBatchRequest is the input of CreateBatch. Storage batches give either
// ExpirationDate or ShelfLife.
type CreateBatchRequest struct {
	IngredientID   models.IngredientID `json:"ingredient_id"`
	MassG          float64             `json:"mass_g"`
	Mode           models.StockMode    `json:"mode"`
	StartDate      string              `json:"start_date"`
	ExpirationDate string              `json:"expiration_date,omitempty"`
	ShelfLife      string              `json:"shelf_life,omitempty"`
	ProcessingType string              `json:"processing_type,omitempty"`
}

// BatchStatus is a batch with its lifecycle state on a given day.
type BatchStatus struct {
	Batch          models.StockBatch `json:"batch"`
	IngredientName string            `json:"ingredient_name"`
	State          BatchState        `json:"state"`
	Gauge          *Gauge            `json:"gauge,omitempty"`
}

// Options tunes a Tracker.
type Options struct {
	// EnforceExpiry hides expired storage batches from availability and deduction.
	EnforceExpiry bool
}

// Tracker owns the stock batch lifecycle.
type Tracker struct {
	tables   *repository.Tables
	resolver nutrition.Resolver
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewTracker wires a stock tracker.
func NewTracker(tables *repository.Tables, resolver nutrition.Resolver, opts Options, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		tables:   tables,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBatch validates and stores a new batch.
func (t *Tracker) CreateBatch(ctx context.Context, req CreateBatchRequest) (models.BatchID, error) {
	if req.MassG < 0 {
		return 0, fmt.Errorf("%w: mass_g must not be negative", ErrInvalidMass)
	}
	if strings.TrimSpace(req.StartDate) == "" {
		return 0, fmt.Errorf("%w: start_date", ErrMissingField)
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%w: start_date: %v", ErrInvalidDate, err)
	}

	batch := models.StockBatch{
		IngredientID:   req.IngredientID,
		MassG:          req.MassG,
		Mode:           req.Mode,
		StartDate:      start,
		ProcessingType: strings.TrimSpace(req.ProcessingType),
	}

	var id models.BatchID
	err = t.tables.Update(ctx, func(tx *repository.Tx) error {
		ingredients, err := tx.Ingredients()
		if err != nil {
			return err
		}
		ingredient, ok := nutrition.IndexIngredients(ingredients)[req.IngredientID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrIngredientNotFound, req.IngredientID)
		}

		switch req.Mode {
		case models.ModeProduction:
			if strings.TrimSpace(req.ExpirationDate) != "" || strings.TrimSpace(req.ShelfLife) != "" {
				return fmt.Errorf("%w: production batches take no expiration_date or shelf_life", ErrInvalidMode)
			}
			if err := applyProductionWindow(&batch, ingredient); err != nil {
				return err
			}
		case models.ModeStorage:
			if err := applyExpiration(&batch, req); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
		}

		batches, err := tx.Batches()
		if err != nil {
			return err
		}
		for _, b := range batches {
			if b.ID > id {
				id = b.ID
			}
		}
		id++
		batch.ID = id
		return tx.SetBatches(append(batches, batch))
	})
	if err != nil {
		return 0, err
	}

	t.logger.Info("stock batch created",
		zap.Int("batch_id", int(id)),
		zap.Int("ingredient_id", int(req.IngredientID)),
		zap.String("mode", string(req.Mode)),
		zap.Float64("mass_g", req.MassG))
	return id, nil
}

func applyProductionWindow(batch *models.StockBatch, ingredient models.Ingredient) error {
	pt := ingredient.ProductionTime
	if !pt.Producible {
		return fmt.Errorf("%w: %d", ErrNotProducible, ingredient.ID)
	}
	if pt.MinDays == nil || pt.MaxDays == nil {
		return fmt.Errorf("%w: production_time min/max of ingredient %d", ErrMissingField, ingredient.ID)
	}
	minEnd := batch.StartDate.AddDays(*pt.MinDays)
	maxEnd := batch.StartDate.AddDays(*pt.MaxDays)
	batch.MinEndDate = &minEnd
	batch.MaxEndDate = &maxEnd
	return nil
}

func applyExpiration(batch *models.StockBatch, req CreateBatchRequest) error {
	var expiration models.Date
	switch {
	case strings.TrimSpace(req.ExpirationDate) != "":
		parsed, err := models.ParseDate(req.ExpirationDate)
		if err != nil {
			return fmt.Errorf("%w: expiration_date: %v", ErrInvalidDate, err)
		}
		expiration = parsed
	case strings.TrimSpace(req.ShelfLife) != "":
		parsed, err := ApplyShelfLife(batch.StartDate, req.ShelfLife)
		if err != nil {
			return err
		}
		expiration = parsed
	default:
		return fmt.Errorf("%w: expiration_date", ErrMissingField)
	}

	if !expiration.After(batch.StartDate.Time) {
		return fmt.Errorf("%w: expiration_date %s must be after start_date %s", ErrInvalidDate, expiration, batch.StartDate)
	}
	batch.ExpirationDate = &expiration
	return nil
}

// Batches lists every batch.
func (t *Tracker) Batches(ctx context.Context) ([]models.StockBatch, error) {
	var out []models.StockBatch
	err := t.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Batches()
		out = append(out, rows...)
		return err
	})
	return out, err
}

// Statuses classifies every batch on day today.
func (t *Tracker) Statuses(ctx context.Context, today models.Date) ([]BatchStatus, error) {
	var out []BatchStatus
	err := t.tables.View(ctx, func(tx *repository.Tx) error {
		batches, err := tx.Batches()
		if err != nil {
			return err
		}
		ingredients, err := tx.Ingredients()
		if err != nil {
			return err
		}
		index := nutrition.IndexIngredients(ingredients)

		for _, b := range batches {
			status := BatchStatus{
				Batch:          b,
				IngredientName: index[b.IngredientID].Name.Display(),
				State:          StateOf(b, today),
			}
			if g, ok := GaugeFor(b, today); ok {
				status.Gauge = &g
			}
			out = append(out, status)
		}
		return nil
	})
	return out, err
}

// AvailableStock sums the consumable mass of an ingredient. Only storage
// batches count; production batches are not stock until harvested.
func (t *Tracker) AvailableStock(ctx context.Context, id models.IngredientID) (float64, error) {
	today := models.DateOf(t.now())

	var total float64
	err := t.tables.View(ctx, func(tx *repository.Tx) error {
		batches, err := tx.Batches()
		if err != nil {
			return err
		}
		total = t.available(batches, today)[id]
		return nil
	})
	return total, err
}

func (t *Tracker) consumable(b models.StockBatch, today models.Date) bool {
	if b.Mode != models.ModeStorage || b.MassG <= 0 {
		return false
	}
	if t.opts.EnforceExpiry && StateOf(b, today) == StateExpired {
		return false
	}
	return true
}

func (t *Tracker) available(batches []models.StockBatch, today models.Date) map[models.IngredientID]float64 {
	out := make(map[models.IngredientID]float64)
	for _, b := range batches {
		if t.consumable(b, today) {
			out[b.IngredientID] += b.MassG
		}
	}
	return out
}

// ConsumeDish deducts the flattened recipe of dish id, times servings, from
// storage stock and logs the intake. Every requirement is checked before any
// batch changes; a shortage rejects the whole consumption.
func (t *Tracker) ConsumeDish(ctx context.Context, id models.DishID, servings float64) (models.IntakeRecord, error) {
	if servings <= 0 {
		return models.IntakeRecord{}, fmt.Errorf("%w: got %v", ErrInvalidServings, servings)
	}
	now := t.now()
	today := models.DateOf(now)

	var record models.IntakeRecord
	err := t.tables.Update(ctx, func(tx *repository.Tx) error {
		dishes, err := tx.Dishes()
		if err != nil {
			return err
		}
		dishIndex := nutrition.IndexDishes(dishes)
		required, err := t.resolver.ResolveBaseIngredients(id, dishIndex)
		if err != nil {
			return err
		}

		batches, err := tx.Batches()
		if err != nil {
			return err
		}

		ids := make([]models.IngredientID, 0, len(required))
		for ingredientID := range required {
			ids = append(ids, ingredientID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		available := t.available(batches, today)
		var shortages []Shortage
		for _, ingredientID := range ids {
			needed := required[ingredientID] * servings
			if available[ingredientID]+massEpsilon < needed {
				shortages = append(shortages, Shortage{
					IngredientID: ingredientID,
					NeededG:      needed,
					AvailableG:   available[ingredientID],
				})
			}
		}
		if len(shortages) > 0 {
			return &InsufficientStockError{DishID: id, Shortages: shortages}
		}

		for _, ingredientID := range ids {
			t.deduct(batches, ingredientID, required[ingredientID]*servings, today)
		}
		if err := tx.SetBatches(batches); err != nil {
			return err
		}

		record, err = t.appendIntake(tx, dishIndex[id], servings, now)
		return err
	})
	if err != nil {
		return models.IntakeRecord{}, fmt.Errorf("consume dish %d: %w", id, err)
	}

	t.logger.Info("dish consumed",
		zap.Int("dish_id", int(id)),
		zap.Float64("servings", servings),
		zap.Float64("mass_g", record.MassG))
	return record, nil
}

// deduct removes grams of an ingredient from its consumable batches, the
// earliest expiring first, and lower ids first on ties.
func (t *Tracker) deduct(batches []models.StockBatch, id models.IngredientID, grams float64, today models.Date) {
	var candidates []int
	for i, b := range batches {
		if b.IngredientID == id && t.consumable(b, today) {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := batches[candidates[i]], batches[candidates[j]]
		ea, eb := expiryKey(a), expiryKey(b)
		if !ea.Equal(eb) {
			return ea.Before(eb)
		}
		return a.ID < b.ID
	})

	remaining := grams
	for _, i := range candidates {
		if remaining <= 0 {
			break
		}
		take := min(batches[i].MassG, remaining)
		left := batches[i].MassG - take
		if left < massEpsilon {
			take, left = batches[i].MassG, 0
		}
		batches[i].MassG = left
		remaining -= take
		if remaining < massEpsilon {
			remaining = 0
		}
		t.logger.Debug("batch deducted",
			zap.Int("batch_id", int(batches[i].ID)),
			zap.Float64("taken_g", take),
			zap.Float64("left_g", batches[i].MassG))
	}
}

// expiryKey sorts batches without an expiration date last.
func expiryKey(b models.StockBatch) time.Time {
	if b.ExpirationDate == nil {
		return time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return b.ExpirationDate.Time
}

func (t *Tracker) appendIntake(tx *repository.Tx, dish models.Dish, servings float64, now time.Time) (models.IntakeRecord, error) {
	rows, err := tx.Intake()
	if err != nil {
		return models.IntakeRecord{}, err
	}

	var id models.IntakeID
	for _, row := range rows {
		if row.ID > id {
			id = row.ID
		}
	}

	mass := dish.TotalMass() * servings
	nutrients := make([]models.NutrientTotal, 0, len(dish.NutritionInfo))
	for _, n := range dish.NutritionInfo {
		nutrients = append(nutrients, models.NutrientTotal{Name: n.Name, Amount: n.AmountPerUnitMass * mass})
	}

	record := models.IntakeRecord{
		ID:         id + 1,
		DishID:     dish.ID,
		Servings:   servings,
		MassG:      mass,
		Nutrients:  nutrients,
		ConsumedAt: now.UTC(),
	}
	if err := tx.SetIntake(append(rows, record)); err != nil {
		return models.IntakeRecord{}, err
	}
	return record, nil
}

package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
	"github.com/mamadbah2/pantry/internal/repository/memory"
	"github.com/mamadbah2/pantry/internal/service/nutrition"
)

const (
	tomatoID models.IngredientID = 1
	basilID  models.IngredientID = 2
	seedID   models.IngredientID = 3
)

func intPtr(v int) *int { return &v }

func newTestTracker(t *testing.T, opts Options, dishes ...models.Dish) (*Tracker, *repository.Tables) {
	t.Helper()
	tables := repository.NewTables(memory.NewStore(), nil)
	err := tables.Update(context.Background(), func(tx *repository.Tx) error {
		ingredients := []models.Ingredient{
			{ID: tomatoID, Name: models.LocalizedText{"eng": "Tomato"}},
			{ID: basilID, Name: models.LocalizedText{"eng": "Basil"}},
			{ID: seedID, Name: models.LocalizedText{"eng": "Sprout"}, ProductionTime: models.ProductionTime{Producible: true, MinDays: intPtr(5), MaxDays: intPtr(9)}},
		}
		if err := tx.SetIngredients(ingredients); err != nil {
			return err
		}
		return tx.SetDishes(dishes)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	tracker := NewTracker(tables, nutrition.Resolver{}, opts, nil)
	tracker.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return tracker, tables
}

func storageBatch(id models.IngredientID, grams float64, start, expiration string) CreateBatchRequest {
	return CreateBatchRequest{IngredientID: id, MassG: grams, Mode: models.ModeStorage, StartDate: start, ExpirationDate: expiration}
}

func mustCreate(t *testing.T, tracker *Tracker, req CreateBatchRequest) models.BatchID {
	t.Helper()
	id, err := tracker.CreateBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return id
}

func batchMass(t *testing.T, tracker *Tracker, id models.BatchID) float64 {
	t.Helper()
	batches, err := tracker.Batches(context.Background())
	if err != nil {
		t.Fatalf("batches: %v", err)
	}
	for _, b := range batches {
		if b.ID == id {
			return b.MassG
		}
	}
	t.Fatalf("batch %d not found", id)
	return 0
}

func TestConsumeDishDrainsBatchThenFails(t *testing.T) {
	ctx := context.Background()
	salad := models.Dish{
		ID:                  1,
		Name:                models.LocalizedText{"eng": "Salad"},
		RequiredIngredients: []models.CompositionRef{models.IngredientRef(tomatoID, 40)},
		NutritionInfo:       []models.NutrientAmount{{Name: models.CaloriesTotalLabel, AmountPerUnitMass: 0.2}},
	}
	tracker, _ := newTestTracker(t, Options{}, salad)
	batch := mustCreate(t, tracker, storageBatch(tomatoID, 40, "2024-03-01", "2024-04-01"))

	record, err := tracker.ConsumeDish(ctx, 1, 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := batchMass(t, tracker, batch); got != 0 {
		t.Fatalf("expected batch drained, got %v", got)
	}
	if record.MassG != 40 || len(record.Nutrients) != 1 || record.Nutrients[0].Amount != 8 {
		t.Fatalf("unexpected intake record %+v", record)
	}

	_, err = tracker.ConsumeDish(ctx, 1, 1)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestConsumeDishToleratesSummedRecipeLines(t *testing.T) {
	ctx := context.Background()
	dish := models.Dish{
		ID:   1,
		Name: models.LocalizedText{"eng": "Garnish"},
		RequiredIngredients: []models.CompositionRef{
			models.IngredientRef(tomatoID, 0.1),
			models.IngredientRef(tomatoID, 0.2),
		},
	}
	tracker, _ := newTestTracker(t, Options{}, dish)
	batch := mustCreate(t, tracker, storageBatch(tomatoID, 0.3, "2024-03-01", "2024-04-01"))

	if _, err := tracker.ConsumeDish(ctx, 1, 1); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := batchMass(t, tracker, batch); got != 0 {
		t.Fatalf("expected batch drained to exactly 0, got %v", got)
	}
	if grams, _ := tracker.AvailableStock(ctx, tomatoID); grams != 0 {
		t.Fatalf("expected no stock left, got %v", grams)
	}
}

func TestConsumeDishIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	dish := models.Dish{
		ID:   1,
		Name: models.LocalizedText{"eng": "Bruschetta"},
		RequiredIngredients: []models.CompositionRef{
			models.IngredientRef(tomatoID, 50),
			models.IngredientRef(basilID, 10),
		},
	}
	tracker, tables := newTestTracker(t, Options{}, dish)
	tomato := mustCreate(t, tracker, storageBatch(tomatoID, 30, "2024-03-01", "2024-04-01"))
	basil := mustCreate(t, tracker, storageBatch(basilID, 100, "2024-03-01", "2024-04-01"))

	_, err := tracker.ConsumeDish(ctx, 1, 1)
	var shortage *InsufficientStockError
	if !errors.As(err, &shortage) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if len(shortage.Shortages) != 1 || shortage.Shortages[0].IngredientID != tomatoID ||
		shortage.Shortages[0].NeededG != 50 || shortage.Shortages[0].AvailableG != 30 {
		t.Fatalf("unexpected shortages %+v", shortage.Shortages)
	}

	if got := batchMass(t, tracker, tomato); got != 30 {
		t.Fatalf("tomato changed to %v", got)
	}
	if got := batchMass(t, tracker, basil); got != 100 {
		t.Fatalf("basil changed to %v", got)
	}

	err = tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Intake()
		if len(rows) != 0 {
			t.Fatalf("intake logged for rejected consumption: %+v", rows)
		}
		return err
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestConsumeDishDeductsEarliestExpiryFirst(t *testing.T) {
	dish := models.Dish{ID: 1, Name: models.LocalizedText{"eng": "Sauce"}, RequiredIngredients: []models.CompositionRef{models.IngredientRef(tomatoID, 50)}}
	tracker, _ := newTestTracker(t, Options{}, dish)
	late := mustCreate(t, tracker, storageBatch(tomatoID, 100, "2024-03-01", "2024-05-01"))
	early := mustCreate(t, tracker, storageBatch(tomatoID, 30, "2024-03-01", "2024-03-20"))

	if _, err := tracker.ConsumeDish(context.Background(), 1, 1); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := batchMass(t, tracker, early); got != 0 {
		t.Fatalf("expected early batch drained, got %v", got)
	}
	if got := batchMass(t, tracker, late); got != 80 {
		t.Fatalf("expected 80 g left in late batch, got %v", got)
	}
}

func TestConsumeDishScalesByServings(t *testing.T) {
	dish := models.Dish{ID: 1, Name: models.LocalizedText{"eng": "Soup"}, RequiredIngredients: []models.CompositionRef{models.IngredientRef(tomatoID, 20)}}
	tracker, _ := newTestTracker(t, Options{}, dish)
	batch := mustCreate(t, tracker, storageBatch(tomatoID, 100, "2024-03-01", "2024-04-01"))

	record, err := tracker.ConsumeDish(context.Background(), 1, 2.5)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := batchMass(t, tracker, batch); got != 50 {
		t.Fatalf("expected 50 g left, got %v", got)
	}
	if record.MassG != 50 || record.Servings != 2.5 {
		t.Fatalf("unexpected record %+v", record)
	}

	if _, err := tracker.ConsumeDish(context.Background(), 1, 0); !errors.Is(err, ErrInvalidServings) {
		t.Fatalf("expected ErrInvalidServings, got %v", err)
	}
}

func TestConsumeDishUnknownDish(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})

	if _, err := tracker.ConsumeDish(context.Background(), 9, 1); !errors.Is(err, nutrition.ErrDishNotFound) {
		t.Fatalf("expected ErrDishNotFound, got %v", err)
	}
}

func TestEnforceExpiryHidesExpiredBatches(t *testing.T) {
	ctx := context.Background()
	dish := models.Dish{ID: 1, Name: models.LocalizedText{"eng": "Salsa"}, RequiredIngredients: []models.CompositionRef{models.IngredientRef(tomatoID, 10)}}

	lenient, _ := newTestTracker(t, Options{}, dish)
	mustCreate(t, lenient, storageBatch(tomatoID, 20, "2024-02-01", "2024-03-01"))
	if grams, _ := lenient.AvailableStock(ctx, tomatoID); grams != 20 {
		t.Fatalf("expected expired stock counted, got %v", grams)
	}

	strict, _ := newTestTracker(t, Options{EnforceExpiry: true}, dish)
	mustCreate(t, strict, storageBatch(tomatoID, 20, "2024-02-01", "2024-03-01"))
	if grams, _ := strict.AvailableStock(ctx, tomatoID); grams != 0 {
		t.Fatalf("expected expired stock hidden, got %v", grams)
	}
	if _, err := strict.ConsumeDish(ctx, 1, 1); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestProductionBatchesAreNotStock(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})
	id := mustCreate(t, tracker, CreateBatchRequest{IngredientID: seedID, MassG: 500, Mode: models.ModeProduction, StartDate: "2024-03-01"})

	batches, _ := tracker.Batches(context.Background())
	b := batches[0]
	if b.ID != id || b.MinEndDate.String() != "2024-03-06" || b.MaxEndDate.String() != "2024-03-10" {
		t.Fatalf("unexpected production window %+v", b)
	}
	if b.ExpirationDate != nil {
		t.Fatalf("production batch has expiration date")
	}
	if grams, _ := tracker.AvailableStock(context.Background(), seedID); grams != 0 {
		t.Fatalf("production batch counted as stock: %v", grams)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})

	cases := []struct {
		name string
		req  CreateBatchRequest
		want error
	}{
		{"negative mass", storageBatch(tomatoID, -1, "2024-03-01", "2024-04-01"), ErrInvalidMass},
		{"missing start", storageBatch(tomatoID, 1, "", "2024-04-01"), ErrMissingField},
		{"bad start", storageBatch(tomatoID, 1, "03/01/2024", "2024-04-01"), ErrInvalidDate},
		{"unknown ingredient", storageBatch(99, 1, "2024-03-01", "2024-04-01"), ErrIngredientNotFound},
		{"missing expiration", storageBatch(tomatoID, 1, "2024-03-01", ""), ErrMissingField},
		{"expiration before start", storageBatch(tomatoID, 1, "2024-03-01", "2024-02-01"), ErrInvalidDate},
		{"expiration on start", storageBatch(tomatoID, 1, "2024-03-01", "2024-03-01"), ErrInvalidDate},
		{"not producible", CreateBatchRequest{IngredientID: tomatoID, MassG: 1, Mode: models.ModeProduction, StartDate: "2024-03-01"}, ErrNotProducible},
		{"unknown mode", CreateBatchRequest{IngredientID: tomatoID, MassG: 1, Mode: "freezer", StartDate: "2024-03-01"}, ErrInvalidMode},
		{"production with expiration", CreateBatchRequest{IngredientID: seedID, MassG: 1, Mode: models.ModeProduction, StartDate: "2024-03-01", ExpirationDate: "2024-04-01"}, ErrInvalidMode},
		{"production with shelf life", CreateBatchRequest{IngredientID: seedID, MassG: 1, Mode: models.ModeProduction, StartDate: "2024-03-01", ShelfLife: "3 days"}, ErrInvalidMode},
	}
	for _, tc := range cases {
		if _, err := tracker.CreateBatch(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	batches, _ := tracker.Batches(context.Background())
	if len(batches) != 0 {
		t.Fatalf("invalid batches stored: %+v", batches)
	}
}

func TestCreateBatchFromShelfLife(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})
	req := CreateBatchRequest{IngredientID: tomatoID, MassG: 10, Mode: models.ModeStorage, StartDate: "2024-03-01", ShelfLife: "1 month 3 days"}

	mustCreate(t, tracker, req)
	batches, _ := tracker.Batches(context.Background())
	if got := batches[0].ExpirationDate.String(); got != "2024-04-04" {
		t.Fatalf("unexpected expiration %s", got)
	}
}

func TestStatusesReportStateAndName(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})
	mustCreate(t, tracker, storageBatch(tomatoID, 10, "2024-03-01", "2024-03-10"))

	statuses, err := tracker.Statuses(context.Background(), mustDate(t, "2024-03-15"))
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if len(statuses) != 1 || statuses[0].State != StateExpired || statuses[0].IngredientName != "Tomato" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
	if statuses[0].Gauge == nil || statuses[0].Gauge.ShelfLifeUsed != 100 {
		t.Fatalf("unexpected gauge %+v", statuses[0].Gauge)
	}
}

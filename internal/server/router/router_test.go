package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
	"github.com/mamadbah2/pantry/internal/repository/memory"
	"github.com/mamadbah2/pantry/internal/server/handlers"
	"github.com/mamadbah2/pantry/internal/server/router"
	"github.com/mamadbah2/pantry/internal/service/catalog"
	"github.com/mamadbah2/pantry/internal/service/nutrition"
	"github.com/mamadbah2/pantry/internal/service/reporting"
	"github.com/mamadbah2/pantry/internal/service/stock"
	"github.com/mamadbah2/pantry/pkg/clients/openfoodfacts"
)

type stubLookup struct{}

func (stubLookup) Lookup(_ context.Context, query string) ([]openfoodfacts.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, openfoodfacts.ErrEmptyQuery
	}
	return []openfoodfacts.Product{{Name: query, Nutrition: []models.NutrientAmount{{Name: models.CaloriesCategory, AmountPerUnitMass: 1}}}}, nil
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tables := repository.NewTables(memory.NewStore(), nil)
	registry := nutrition.NewRegistry(tables, nil)
	if err := registry.EnsureDefaults(context.Background(), nutrition.DefaultCategories); err != nil {
		t.Fatalf("seed: %v", err)
	}
	nutritionSvc := nutrition.NewService(tables, nutrition.Resolver{}, nil)
	catalogSvc := catalog.NewService(tables, nutritionSvc, nil)
	tracker := stock.NewTracker(tables, nutrition.Resolver{}, stock.Options{}, nil)
	reportingSvc := reporting.NewService(tables, tracker, nil, "", nil)

	return router.New(router.Handlers{
		Catalog:   handlers.NewCatalogHandler(catalogSvc, stubLookup{}, nil),
		Nutrition: handlers.NewNutritionHandler(registry, nutritionSvc, nil),
		Stock:     handlers.NewStockHandler(tracker, reportingSvc, nil),
	}, nil)
}

func do(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	rec := do(t, newEngine(t), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDishLifecycleOverHTTP(t *testing.T) {
	engine := newEngine(t)

	rec := do(t, engine, http.MethodPost, "/ingredients", map[string]any{
		"name":      map[string]string{"eng": "Tomato"},
		"nutrition": []map[string]any{{"name": "Calories", "amount_per_unit_mass": 0.2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ingredient: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, engine, http.MethodPost, "/dishes", map[string]any{
		"name":                 map[string]string{"eng": "Salad"},
		"required_ingredients": []map[string]any{{"type": "ingredient", "id": 1, "amount_g": 40}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create dish: %d %s", rec.Code, rec.Body.String())
	}

	dish := decode[models.Dish](t, do(t, engine, http.MethodGet, "/dishes/1", nil))
	if dish.NutritionInfo[0].Name != models.CaloriesTotalLabel || dish.NutritionInfo[0].AmountPerUnitMass != 0.2 {
		t.Fatalf("unexpected nutrition %+v", dish.NutritionInfo)
	}

	rec = do(t, engine, http.MethodPost, "/batches", map[string]any{
		"ingredient_id": 1, "mass_g": 40, "mode": "storage",
		"start_date": "2024-03-01", "expiration_date": "2999-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create batch: %d %s", rec.Code, rec.Body.String())
	}

	stockBody := decode[map[string]float64](t, do(t, engine, http.MethodGet, "/ingredients/1/stock", nil))
	if stockBody["available_g"] != 40 {
		t.Fatalf("unexpected stock %+v", stockBody)
	}

	rec = do(t, engine, http.MethodPost, "/dishes/1/consume", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("consume: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, engine, http.MethodPost, "/dishes/1/consume", map[string]any{"servings": 1})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on empty stock, got %d %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if shortages, ok := body["shortages"].([]any); !ok || len(shortages) != 1 {
		t.Fatalf("expected shortages in body, got %v", body)
	}

	base := decode[[]map[string]float64](t, do(t, engine, http.MethodGet, "/dishes/1/base-ingredients", nil))
	if len(base) != 1 || base[0]["ingredient_id"] != 1 || base[0]["amount_g"] != 40 {
		t.Fatalf("unexpected base ingredients %v", base)
	}
}

func TestErrorStatuses(t *testing.T) {
	engine := newEngine(t)

	cases := []struct {
		method, path string
		body         any
		want         int
	}{
		{http.MethodGet, "/dishes/99", nil, http.StatusNotFound},
		{http.MethodGet, "/dishes/abc", nil, http.StatusBadRequest},
		{http.MethodPost, "/dishes", map[string]any{"name": map[string]string{}}, http.StatusBadRequest},
		{http.MethodPost, "/dishes/99/consume", nil, http.StatusNotFound},
		{http.MethodPost, "/batches", map[string]any{"ingredient_id": 5, "mass_g": 1, "mode": "storage", "start_date": "2024-03-01", "expiration_date": "2024-04-01"}, http.StatusNotFound},
		{http.MethodPost, "/categories", map[string]any{"name": "Calories", "unit": "kcal"}, http.StatusConflict},
		{http.MethodGet, "/intake/summary?date=yesterday", nil, http.StatusBadRequest},
		{http.MethodGet, "/ingredients/99/dishes", nil, http.StatusNotFound},
		{http.MethodGet, "/cooking-methods/99/dishes", nil, http.StatusNotFound},
		{http.MethodGet, "/research/99", nil, http.StatusNotFound},
		{http.MethodPost, "/cooking-methods", map[string]any{"name": map[string]string{}}, http.StatusBadRequest},
		{http.MethodPost, "/research", map[string]any{"reference_data": map[string]string{}}, http.StatusBadRequest},
		{http.MethodGet, "/ingredients/lookup", nil, http.StatusBadRequest},
		{http.MethodPost, "/nutrition/aggregate", map[string]any{"composition": []map[string]any{{"type": "spice", "id": 1, "amount_g": 1}}}, http.StatusBadRequest},
		{http.MethodPost, "/nutrition/aggregate", map[string]any{"composition": []map[string]any{{"type": "ingredient", "id": 1, "amount_g": -100}}}, http.StatusBadRequest},
		{http.MethodPost, "/dishes", map[string]any{"name": map[string]string{"eng": "D"}, "required_ingredients": []map[string]any{{"type": "ingredient", "id": 1, "amount_g": -1}}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, engine, tc.method, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d %s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestLookupAndAggregate(t *testing.T) {
	engine := newEngine(t)

	products := decode[[]openfoodfacts.Product](t, do(t, engine, http.MethodGet, "/ingredients/lookup?q=oats", nil))
	if len(products) != 1 || products[0].Name != "oats" {
		t.Fatalf("unexpected products %+v", products)
	}

	rec := do(t, engine, http.MethodPost, "/nutrition/aggregate", map[string]any{"composition": []map[string]any{}})
	if rec.Code != http.StatusOK {
		t.Fatalf("aggregate: %d %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string][]models.NutrientAmount](t, rec)
	if len(body["nutrition_info"]) != len(nutrition.DefaultCategories) {
		t.Fatalf("unexpected profile %+v", body)
	}

	summary := decode[reporting.IntakeSummary](t, do(t, engine, http.MethodGet, "/intake/summary?date=2024-03-15", nil))
	if summary.Date != "2024-03-15" || summary.Entries != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestKnowledgeRoutes(t *testing.T) {
	engine := newEngine(t)

	steps := []struct {
		path string
		body any
	}{
		{"/research", map[string]any{"reference_data": map[string]string{"title": "Hydration"}}},
		{"/cooking-methods", map[string]any{"name": map[string]string{"eng": "Boil"}, "research_ids": []int{1}}},
		{"/ingredients", map[string]any{"name": map[string]string{"eng": "Egg"}, "research_ids": []int{1}}},
		{"/dishes", map[string]any{
			"name":                 map[string]string{"eng": "Boiled Egg"},
			"required_ingredients": []map[string]any{{"type": "ingredient", "id": 1, "amount_g": 50}},
			"cooking-method-ids":   []int{1},
		}},
	}
	for _, step := range steps {
		if rec := do(t, engine, http.MethodPost, step.path, step.body); rec.Code != http.StatusCreated {
			t.Fatalf("POST %s: %d %s", step.path, rec.Code, rec.Body.String())
		}
	}

	for _, path := range []string{"/ingredients/1/dishes", "/cooking-methods/1/dishes"} {
		dishes := decode[[]models.Dish](t, do(t, engine, http.MethodGet, path, nil))
		if len(dishes) != 1 || dishes[0].ID != 1 {
			t.Fatalf("GET %s: unexpected dishes %+v", path, dishes)
		}
	}

	links := decode[catalog.ResearchLinks](t, do(t, engine, http.MethodGet, "/research/1", nil))
	if links.Research.ReferenceData.Title != "Hydration" || len(links.Ingredients) != 1 || len(links.CookingMethods) != 1 {
		t.Fatalf("unexpected research links %+v", links)
	}
}

package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/nutrition"
)

// NutritionHandler serves categories, aggregation and recipe flattening.
type NutritionHandler struct {
	registry *nutrition.Registry
	svc      *nutrition.Service
	logger   *zap.Logger
}

// NewNutritionHandler constructs the nutrition HTTP adapter.
func NewNutritionHandler(registry *nutrition.Registry, svc *nutrition.Service, logger *zap.Logger) *NutritionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NutritionHandler{registry: registry, svc: svc, logger: logger}
}

// ListCategories returns the registered nutrient categories.
func (h *NutritionHandler) ListCategories(c *gin.Context) {
	rows, err := h.registry.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// CreateCategory registers a nutrient category.
func (h *NutritionHandler) CreateCategory(c *gin.Context) {
	var req models.NutrientCategory
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	category, err := h.registry.AddCategory(c.Request.Context(), req.Name, req.Unit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

type aggregateRequest struct {
	Composition []models.CompositionRef `json:"composition"`
}

// Aggregate computes the per-gram profile of an ad-hoc composition.
func (h *NutritionHandler) Aggregate(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	profile, err := h.svc.AggregateNutrition(c.Request.Context(), req.Composition)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nutrition_info": profile})
}

type baseIngredient struct {
	IngredientID models.IngredientID `json:"ingredient_id"`
	AmountG      float64             `json:"amount_g"`
}

// BaseIngredients flattens a dish into grams per base ingredient.
func (h *NutritionHandler) BaseIngredients(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resolved, err := h.svc.ResolveBaseIngredients(c.Request.Context(), models.DishID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]baseIngredient, 0, len(resolved))
	for ingredientID, grams := range resolved {
		out = append(out, baseIngredient{IngredientID: ingredientID, AmountG: grams})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	c.JSON(http.StatusOK, out)
}

// RecomputeDishes refreshes stored nutrition of every dish.
func (h *NutritionHandler) RecomputeDishes(c *gin.Context) {
	if err := h.svc.RecomputeAllDishes(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recomputed"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/catalog"
	"github.com/mamadbah2/pantry/pkg/clients/openfoodfacts"
)

// CatalogHandler serves ingredient, dish, cooking method and research CRUD.
type CatalogHandler struct {
	svc    *catalog.Service
	lookup openfoodfacts.Client
	logger *zap.Logger
}

// NewCatalogHandler constructs the catalog HTTP adapter. lookup may be nil.
func NewCatalogHandler(svc *catalog.Service, lookup openfoodfacts.Client, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, lookup: lookup, logger: logger}
}

// ListIngredients returns every ingredient.
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	rows, err := h.svc.Ingredients(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// GetIngredient returns one ingredient.
func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := h.svc.Ingredient(c.Request.Context(), models.IngredientID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// CreateIngredient stores a new ingredient.
func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var in catalog.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.svc.AddIngredient(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateIngredient replaces an ingredient.
func (h *CatalogHandler) UpdateIngredient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in catalog.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.UpdateIngredient(c.Request.Context(), models.IngredientID(id), in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LookupIngredient searches Open Food Facts for nutrition to prefill.
func (h *CatalogHandler) LookupIngredient(c *gin.Context) {
	if h.lookup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup disabled"})
		return
	}
	products, err := h.lookup.Lookup(c.Request.Context(), c.Query("q"))
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			respondError(c, h.logger, err)
			return
		}
		h.logger.Warn("nutrition lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListDishes returns every dish.
func (h *CatalogHandler) ListDishes(c *gin.Context) {
	rows, err := h.svc.Dishes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// GetDish returns one dish.
func (h *CatalogHandler) GetDish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := h.svc.Dish(c.Request.Context(), models.DishID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// CreateDish stores a new dish.
func (h *CatalogHandler) CreateDish(c *gin.Context) {
	var in catalog.DishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.svc.AddDish(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateDish replaces a dish.
func (h *CatalogHandler) UpdateDish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in catalog.DishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.UpdateDish(c.Request.Context(), models.DishID(id), in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

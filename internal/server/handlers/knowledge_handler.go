package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/catalog"
)

// ListCookingMethods returns every cooking method.
func (h *CatalogHandler) ListCookingMethods(c *gin.Context) {
	rows, err := h.svc.CookingMethods(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// CreateCookingMethod stores a new cooking method.
func (h *CatalogHandler) CreateCookingMethod(c *gin.Context) {
	var in catalog.CookingMethodInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.svc.AddCookingMethod(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// CookingMethodDishes lists dishes prepared with a cooking method.
func (h *CatalogHandler) CookingMethodDishes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rows, err := h.svc.DishesUsingCookingMethod(c.Request.Context(), models.CookingMethodID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// IngredientDishes lists dishes whose recipe uses an ingredient directly.
func (h *CatalogHandler) IngredientDishes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rows, err := h.svc.DishesUsingIngredient(c.Request.Context(), models.IngredientID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// ListResearch returns every research entry.
func (h *CatalogHandler) ListResearch(c *gin.Context) {
	rows, err := h.svc.Research(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// CreateResearch stores a new research entry.
func (h *CatalogHandler) CreateResearch(c *gin.Context) {
	var in catalog.ResearchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.svc.AddResearch(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// GetResearch returns a research entry with the ingredients and cooking
// methods citing it.
func (h *CatalogHandler) GetResearch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	links, err := h.svc.ResearchLinks(c.Request.Context(), models.ResearchID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	links.Ingredients = nonNil(links.Ingredients)
	links.CookingMethods = nonNil(links.CookingMethods)
	c.JSON(http.StatusOK, links)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/catalog"
	"github.com/mamadbah2/pantry/internal/service/nutrition"
	"github.com/mamadbah2/pantry/internal/service/stock"
	"github.com/mamadbah2/pantry/pkg/clients/openfoodfacts"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidComposition),
		errors.Is(err, nutrition.ErrInvalidCategory),
		errors.Is(err, nutrition.ErrUnknownRefKind),
		errors.Is(err, stock.ErrNotProducible),
		errors.Is(err, stock.ErrInvalidDate),
		errors.Is(err, stock.ErrMissingField),
		errors.Is(err, stock.ErrInvalidMode),
		errors.Is(err, stock.ErrInvalidMass),
		errors.Is(err, stock.ErrInvalidServings),
		errors.Is(err, openfoodfacts.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrIngredientNotFound),
		errors.Is(err, catalog.ErrDishNotFound),
		errors.Is(err, catalog.ErrCookingMethodNotFound),
		errors.Is(err, catalog.ErrResearchNotFound),
		errors.Is(err, nutrition.ErrDishNotFound),
		errors.Is(err, stock.ErrIngredientNotFound):
		return http.StatusNotFound
	case errors.Is(err, nutrition.ErrCycle),
		errors.Is(err, nutrition.ErrDuplicateCategory),
		errors.Is(err, stock.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var shortage *stock.InsufficientStockError
	if errors.As(err, &shortage) {
		body["shortages"] = shortage.Shortages
	}
	logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.JSON(status, body)
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

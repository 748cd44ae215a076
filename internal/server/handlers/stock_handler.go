package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/reporting"
	"github.com/mamadbah2/pantry/internal/service/stock"
)

// StockHandler serves batches, consumption and intake summaries.
type StockHandler struct {
	tracker   *stock.Tracker
	reporting *reporting.Service
	logger    *zap.Logger
	now       func() time.Time
}

// NewStockHandler constructs the stock HTTP adapter.
func NewStockHandler(tracker *stock.Tracker, reportingSvc *reporting.Service, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{tracker: tracker, reporting: reportingSvc, logger: logger, now: time.Now}
}

// dayParam reads ?date=YYYY-MM-DD, defaulting to today.
func (h *StockHandler) dayParam(c *gin.Context) (models.Date, bool) {
	raw := c.Query("date")
	if raw == "" {
		return models.DateOf(h.now()), true
	}
	day, err := models.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return models.Date{}, false
	}
	return day, true
}

// ListBatches returns every batch with its state on ?date=.
func (h *StockHandler) ListBatches(c *gin.Context) {
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	statuses, err := h.reporting.StockSnapshot(c.Request.Context(), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(statuses))
}

// CreateBatch stores a new batch.
func (h *StockHandler) CreateBatch(c *gin.Context) {
	var req stock.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.tracker.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// IngredientStock reports the consumable grams of an ingredient.
func (h *StockHandler) IngredientStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	grams, err := h.tracker.AvailableStock(c.Request.Context(), models.IngredientID(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredient_id": id, "available_g": grams})
}

type consumeRequest struct {
	Servings *float64 `json:"servings"`
}

// ConsumeDish deducts a dish from stock and logs the intake. Servings
// defaults to 1 when the body is empty.
func (h *StockHandler) ConsumeDish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	servings := 1.0
	if req.Servings != nil {
		servings = *req.Servings
	}

	record, err := h.tracker.ConsumeDish(c.Request.Context(), models.DishID(id), servings)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// IntakeSummary totals the intake of ?date=.
func (h *StockHandler) IntakeSummary(c *gin.Context) {
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	summary, err := h.reporting.DailyIntakeSummary(c.Request.Context(), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

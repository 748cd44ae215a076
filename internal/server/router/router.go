package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Catalog   *handlers.CatalogHandler
	Nutrition *handlers.NutritionHandler
	Stock     *handlers.StockHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/categories", h.Nutrition.ListCategories)
	r.POST("/categories", h.Nutrition.CreateCategory)

	ingredients := r.Group("/ingredients")
	ingredients.GET("", h.Catalog.ListIngredients)
	ingredients.POST("", h.Catalog.CreateIngredient)
	ingredients.GET("/lookup", h.Catalog.LookupIngredient)
	ingredients.GET("/:id", h.Catalog.GetIngredient)
	ingredients.PUT("/:id", h.Catalog.UpdateIngredient)
	ingredients.GET("/:id/stock", h.Stock.IngredientStock)
	ingredients.GET("/:id/dishes", h.Catalog.IngredientDishes)

	dishes := r.Group("/dishes")
	dishes.GET("", h.Catalog.ListDishes)
	dishes.POST("", h.Catalog.CreateDish)
	dishes.POST("/recompute", h.Nutrition.RecomputeDishes)
	dishes.GET("/:id", h.Catalog.GetDish)
	dishes.PUT("/:id", h.Catalog.UpdateDish)
	dishes.GET("/:id/base-ingredients", h.Nutrition.BaseIngredients)
	dishes.POST("/:id/consume", h.Stock.ConsumeDish)

	methods := r.Group("/cooking-methods")
	methods.GET("", h.Catalog.ListCookingMethods)
	methods.POST("", h.Catalog.CreateCookingMethod)
	methods.GET("/:id/dishes", h.Catalog.CookingMethodDishes)

	research := r.Group("/research")
	research.GET("", h.Catalog.ListResearch)
	research.POST("", h.Catalog.CreateResearch)
	research.GET("/:id", h.Catalog.GetResearch)

	r.POST("/nutrition/aggregate", h.Nutrition.Aggregate)

	r.GET("/batches", h.Stock.ListBatches)
	r.POST("/batches", h.Stock.CreateBatch)

	r.GET("/intake/summary", h.Stock.IntakeSummary)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

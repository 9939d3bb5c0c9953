// Package api exposes each pipeline step and the run read views over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/metrics"
	"github.com/AI-Template-SDK/senso-benchmarks/services"
)

// Deps are the services behind the routes. Inngest may be nil.
type Deps struct {
	Benchmark services.BenchmarkService
	Scoring   services.ScoringService
	Queries   services.RunQueryService
	Products  services.ProductService
	Inngest   http.Handler
	APIKey    string
	Logger    *zap.Logger
}

type Handler struct {
	benchmark services.BenchmarkService
	scoring   services.ScoringService
	queries   services.RunQueryService
	products  services.ProductService
	logger    *zap.Logger
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(deps Deps) *gin.Engine {
	h := &Handler{
		benchmark: deps.Benchmark,
		scoring:   deps.Scoring,
		queries:   deps.Queries,
		products:  deps.Products,
		logger:    deps.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(deps.Logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "senso-benchmarks", "status": "running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if deps.Inngest != nil {
		router.Any("/api/inngest", gin.WrapH(deps.Inngest))
	}

	steps := router.Group("/", APIKeyAuth(deps.APIKey))
	steps.POST("/benchmark/run", h.RunBenchmark)
	steps.POST("/benchmark/seed", h.SeedSampleRun)
	steps.POST("/benchmark/mock-models", h.MockOtherModels)
	steps.POST("/scores/recompute", h.RecomputeScores)

	steps.GET("/products", h.ListProducts)
	steps.GET("/products/:id/runs/latest", h.GetLatestRun)
	steps.GET("/runs/:id", h.GetRun)
	steps.GET("/runs/:id/answers", h.ListAnswers)
	steps.GET("/runs/:id/sources", h.ListSources)

	return router
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/services"
)

type runBenchmarkRequest struct {
	ProductID int64              `json:"product_id" binding:"required,gt=0"`
	Force     bool               `json:"force"`
	Models    []string           `json:"models"`
	Analysis  *services.Analysis `json:"analysis"`
}

type productRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

type runRequest struct {
	RunID    int64              `json:"run_id" binding:"required,gt=0"`
	Analysis *services.Analysis `json:"analysis"`
}

type runResponse struct {
	Success bool `json:"success"`
	*services.RunResult
}

type viewResponse struct {
	Success bool `json:"success"`
	*services.RunView
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrModelUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("[API] request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", requestIDFrom(c)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *Handler) failErr(c *gin.Context, err error) {
	h.fail(c, statusFor(err), err)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) RunBenchmark(c *gin.Context) {
	var req runBenchmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.benchmark.RunBenchmark(c.Request.Context(), services.RunRequest{
		ProductID: req.ProductID,
		Force:     req.Force,
		Models:    req.Models,
		Analysis:  req.Analysis,
	})
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse{Success: true, RunResult: result})
}

func (h *Handler) SeedSampleRun(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.benchmark.SeedSampleRun(c.Request.Context(), req.ProductID)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse{Success: true, RunResult: result})
}

func (h *Handler) MockOtherModels(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.benchmark.MockOtherModels(c.Request.Context(), req.RunID)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse{Success: true, RunResult: result})
}

func (h *Handler) RecomputeScores(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	results, err := h.scoring.Recompute(c.Request.Context(), req.RunID, req.Analysis)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"run_id":          req.RunID,
		"score":           results.Score,
		"recommendations": results.Recommendations,
	})
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *Handler) GetLatestRun(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.queries.GetLatestRun(c.Request.Context(), id)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResponse{Success: true, RunView: view})
}

func (h *Handler) GetRun(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.queries.GetRun(c.Request.Context(), id)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResponse{Success: true, RunView: view})
}

func (h *Handler) ListAnswers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	answers, err := h.queries.ListAnswers(c.Request.Context(), id)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "run_id": id, "answers": answers})
}

func (h *Handler) ListSources(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sources, err := h.queries.ListCitedSources(c.Request.Context(), id)
	if err != nil {
		h.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "run_id": id, "sources": sources})
}

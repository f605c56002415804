package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analysis"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/pipeline"
	"github.com/spigell/resume-analyzer/internal/store"
)

type analyzeRequest struct {
	ResumeText     string `json:"resume_text" binding:"required"`
	JobDescription string `json:"job_description" binding:"required"`
}

func (h *handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "resume_text and job_description are required", err.Error())
		return
	}

	sub, err := h.pipeline.Submit(c.Request.Context(), analysis.Request{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *handler) status(c *gin.Context) {
	id := c.Param("id")

	rec, err := h.pipeline.Get(c.Request.Context(), id)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *handler) healthz(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": store.ErrNotConnected.Error()})
		return
	}

	if err := h.health.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) respondPipelineError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		respondBadRequest(c, err.Error(), "")
	case errors.Is(err, pipeline.ErrNotFound):
		respondNotFound(c, "Analysis ID not found")
	case errors.Is(err, store.ErrNotConnected):
		respondUnavailable(c, "database is not initialized", err.Error())
	default:
		fields := logger.StringFields(logger.StringField{Key: logger.FieldAnalysisID, Value: c.Param("id")})
		h.logger.Error("pipeline error", append(fields, zap.String("route", c.FullPath()), zap.Error(err))...)
		respondInternalError(c, "internal server error", err.Error())
	}
}

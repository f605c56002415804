// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analysis"
	"github.com/spigell/resume-analyzer/internal/pipeline"
)

// Pipeline is the part of the orchestrator the handlers need.
type Pipeline interface {
	Submit(ctx context.Context, req analysis.Request) (*pipeline.Submission, error)
	Get(ctx context.Context, id string) (*analysis.Record, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

var _ Pipeline = (*pipeline.Pipeline)(nil)

type handler struct {
	pipeline Pipeline
	health   HealthChecker
	logger   *zap.Logger
}

// New builds the router with recovery and access logging.
func New(p Pipeline, health HealthChecker, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handler{pipeline: p, health: health, logger: logger}

	router := gin.New()
	router.Use(accessLog(logger), recovery(logger))

	router.POST("/analyze", h.analyze)
	router.GET("/status/:id", h.status)
	router.GET("/healthz", h.healthz)

	router.NoRoute(func(c *gin.Context) {
		respondNotFound(c, "route not found")
	})

	return router
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		logger.Error("panic while serving request", zap.Any("panic", err), zap.String("path", c.Request.URL.Path))
		respondInternalError(c, "internal server error", "")
	})
}

package handlers

import (
	"net/http"
	"strconv"

	"go-label-printer/internal/middleware"
	"go-label-printer/internal/monitoring"

	"github.com/gin-gonic/gin"
)

type MonitoringHandler struct {
	codecFailures *monitoring.CodecFailureTracker
	perfMonitor   *middleware.PerformanceMonitor
}

func NewMonitoringHandler(codecFailures *monitoring.CodecFailureTracker, perfMonitor *middleware.PerformanceMonitor) *MonitoringHandler {
	return &MonitoringHandler{
		codecFailures: codecFailures,
		perfMonitor:   perfMonitor,
	}
}

// GetCodecFailures lists codes the codec rejected
func (h *MonitoringHandler) GetCodecFailures(c *gin.Context) {
	resolved := c.Query("resolved") == "true"
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	failures := h.codecFailures.GetFailures(resolved, limit)

	c.JSON(http.StatusOK, gin.H{
		"failures": failures,
		"summary":  h.codecFailures.Summary(),
		"resolved": resolved,
		"count":    len(failures),
	})
}

// ResolveCodecFailure marks a failure as handled
func (h *MonitoringHandler) ResolveCodecFailure(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	if err := h.codecFailures.Resolve(fingerprint); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"fingerprint": fingerprint,
	})
}

func (h *MonitoringHandler) GetPerformanceMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"performance": h.perfMonitor.Snapshot(),
		"slowest":     h.perfMonitor.SlowestRoutes(20),
	})
}

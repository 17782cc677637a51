package handler

import (
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/healthcheck"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/gin-gonic/gin"
)

// Handles system-related endpoints
type SystemHandler struct {
	checker *healthcheck.Checker
}

func NewSystemHandler(checker *healthcheck.Checker) *SystemHandler {
	return &SystemHandler{checker: checker}
}

// Health reports dependency status. Only an unhealthy service answers 503;
// a degraded one keeps serving.
func (h *SystemHandler) Health(c *gin.Context) {
	overall := h.checker.OverallHealth()

	status := http.StatusOK
	if overall == healthcheck.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	c.Header("Cache-Control", "no-store")
	response.JSON(c, status, gin.H{
		"status":       overall.String(),
		"dependencies": h.checker.Snapshot(),
	})
}

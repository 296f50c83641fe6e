package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the manager over HTTP for dashboards and operators.
type Handler struct {
	manager *Manager
}

// NewHandler creates a Handler backed by the given manager.
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// RegisterRoutes mounts the health endpoints on a gin router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.getSummary)
	r.GET("/health/services", h.getServices)
	r.GET("/health/services/:name", h.getService)
	r.POST("/health/services/:name/check", h.checkService)
	r.POST("/health/breakers/reset", h.resetAllBreakers)
	r.POST("/health/breakers/:name/reset", h.resetBreaker)
}

// getSummary reports system health. Load balancers key off the status
// code: 200 while the system can serve traffic, 503 once it cannot.
func (h *Handler) getSummary(c *gin.Context) {
	summary := h.manager.Summary()

	status := http.StatusOK
	if summary.OverallStatus == string(StatusUnhealthy) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, summary)
}

func (h *Handler) getServices(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.AllServiceHealth())
}

func (h *Handler) getService(c *gin.Context) {
	name := c.Param("name")
	result, ok := h.manager.ServiceHealth(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found", "service": name})
		return
	}
	c.JSON(http.StatusOK, result)
}

// checkService triggers an immediate probe instead of waiting for the
// next periodic pass.
func (h *Handler) checkService(c *gin.Context) {
	name := c.Param("name")
	result, err := h.manager.CheckService(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "service": name})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) resetBreaker(c *gin.Context) {
	name := c.Param("name")
	if err := h.manager.ResetCircuitBreaker(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "service": name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "service": name})
}

func (h *Handler) resetAllBreakers(c *gin.Context) {
	h.manager.ResetAllCircuitBreakers()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/torchd/pkg/api/types"
	"github.com/urmzd/torchd/pkg/device"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	svc     device.Service
	session Session
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc device.Service, session Session) *HealthHandler {
	return &HealthHandler{svc: svc, session: session}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Reports backend connectivity and whether a usable torch was found
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Service is degraded"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	backend := "disconnected"
	if h.svc.IsConnected() {
		backend = "connected"
	}

	caps := h.session.Capability()
	deviceStatus := "missing"
	switch {
	case caps.Usable():
		deviceStatus = "available"
	case caps.Handle.Valid():
		deviceStatus = "unavailable"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if backend != "connected" || deviceStatus != "available" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:    status,
		Backend:   backend,
		Device:    deviceStatus,
		Timestamp: time.Now(),
	})
}

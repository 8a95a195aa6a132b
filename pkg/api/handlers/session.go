package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/torchd/pkg/api/types"
	"github.com/urmzd/torchd/pkg/device"
	"github.com/urmzd/torchd/pkg/torch"
)

// Session is the part of torch.Session the handlers drive
type Session interface {
	Capability() torch.Capability
	State() torch.State
	RequestToggle(ctx context.Context) (torch.State, error)
	RequestSetEnabled(ctx context.Context, on bool) (torch.State, error)
	RequestSetIntensity(ctx context.Context, v int) (torch.State, error)
	Watch() chan torch.Update
	Unwatch(ch chan torch.Update)
	Notifications() []torch.Notification
	Dismiss(id string) error
}

func torchResponse(caps torch.Capability, st torch.State) types.TorchResponse {
	return types.TorchResponse{
		Capability: types.CapabilityResponse{
			Device:           string(caps.Handle),
			MaxStrengthLevel: caps.MaxStrengthLevel,
			Available:        caps.Available,
		},
		State:     st,
		Timestamp: time.Now(),
	}
}

// writeError maps session and backend errors to HTTP responses
func writeError(c *gin.Context, err error) {
	var status int
	var resp types.ErrorResponse

	switch {
	case errors.Is(err, torch.ErrNoDeviceFound):
		status, resp = http.StatusConflict, types.ErrorResponse{Error: "no_device_found", Message: "No torch found on this device"}
	case errors.Is(err, torch.ErrDeviceUnavailable):
		status, resp = http.StatusConflict, types.ErrorResponse{Error: "device_unavailable", Message: "Torch not found or unavailable"}
	case errors.Is(err, torch.ErrIntensityOutOfRange):
		status, resp = http.StatusBadRequest, types.ErrorResponse{Error: "intensity_out_of_range", Message: err.Error()}
	case errors.Is(err, torch.ErrNotificationNotFound):
		status, resp = http.StatusNotFound, types.ErrorResponse{Error: "not_found", Message: "Notification not found"}
	case errors.Is(err, torch.ErrSessionClosed):
		status, resp = http.StatusServiceUnavailable, types.ErrorResponse{Error: "session_closed", Message: err.Error()}
	case errors.Is(err, device.ErrTimeout):
		status, resp = http.StatusGatewayTimeout, types.ErrorResponse{Error: "timeout", Message: "Request timed out waiting for torch response"}
	case errors.Is(err, torch.ErrAccessFailure):
		status, resp = http.StatusBadGateway, types.ErrorResponse{Error: "access_failure", Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, resp = http.StatusServiceUnavailable, types.ErrorResponse{Error: "canceled", Message: err.Error()}
	default:
		status, resp = http.StatusInternalServerError, types.ErrorResponse{Error: "internal_error", Message: err.Error()}
	}

	c.JSON(status, resp)
}

package types

import (
	"time"

	"github.com/urmzd/torchd/pkg/torch"
)

// --- Request DTOs ---

// SetIntensityRequest is the request body for PUT /torch/intensity
type SetIntensityRequest struct {
	Intensity int `json:"intensity" example:"30"`
}

// SetTorchRequest is the request body for PATCH /torch. Omitted fields are
// left unchanged.
type SetTorchRequest struct {
	Enabled   *bool `json:"enabled,omitempty"`
	Intensity *int  `json:"intensity,omitempty"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Backend   string    `json:"backend"`
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}

// CapabilityResponse describes the torch found at startup
type CapabilityResponse struct {
	Device           string `json:"device,omitempty"`
	MaxStrengthLevel int    `json:"max_strength_level"`
	Available        bool   `json:"available"`
}

// TorchResponse is returned from the /torch endpoints
type TorchResponse struct {
	Capability CapabilityResponse `json:"capability"`
	State      torch.State        `json:"state"`
	Timestamp  time.Time          `json:"timestamp"`
}

// NotificationsResponse is returned from GET /notifications
type NotificationsResponse struct {
	Notifications []torch.Notification `json:"notifications"`
	Count         int                  `json:"count"`
}

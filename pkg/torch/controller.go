package torch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/device"
)

// Controller issues on/off/level commands to the backend. Every backend
// failure is logged and returned as ErrAccessFailure with the cause attached.
type Controller struct {
	svc device.Service
}

// NewController creates a controller for svc
func NewController(svc device.Service) *Controller {
	return &Controller{svc: svc}
}

// Enable turns the unit on at intensity. On a lit unit it changes the level.
func (c *Controller) Enable(ctx context.Context, h device.Handle, intensity int) error {
	if err := c.svc.SetEnabledWithStrength(ctx, h, intensity); err != nil {
		log.Error().Err(err).Str("device", string(h)).Int("intensity", intensity).Msg("Failed to turn on torch")
		return fmt.Errorf("turn on %s: %w: %w", h, ErrAccessFailure, err)
	}
	log.Debug().Str("device", string(h)).Int("intensity", intensity).Msg("Torch on")
	return nil
}

// Disable turns the unit off
func (c *Controller) Disable(ctx context.Context, h device.Handle) error {
	if err := c.svc.SetEnabled(ctx, h, false); err != nil {
		log.Error().Err(err).Str("device", string(h)).Msg("Failed to turn off torch")
		return fmt.Errorf("turn off %s: %w: %w", h, ErrAccessFailure, err)
	}
	log.Debug().Str("device", string(h)).Msg("Torch off")
	return nil
}

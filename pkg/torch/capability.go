package torch

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/device"
)

// DefaultMaxStrengthLevel is the slider bound used when no unit reports one.
const DefaultMaxStrengthLevel = 45

// Capability is the result of the startup capability query.
type Capability struct {
	Handle           device.Handle `json:"handle,omitempty"`
	MaxStrengthLevel int           `json:"max_strength_level"`
	Available        bool          `json:"available"`
}

// Usable reports whether commands may be sent to the unit.
func (c Capability) Usable() bool {
	return c.Handle.Valid() && c.Available
}

// QueryCapability picks the first unit the backend lists and reads its
// descriptor. Backend failures and panics degrade to "no device" with
// fallbackMax as the strength bound; they never reach the caller.
func QueryCapability(ctx context.Context, svc device.Service, fallbackMax int) (c Capability) {
	if fallbackMax < 1 {
		fallbackMax = DefaultMaxStrengthLevel
	}
	none := Capability{MaxStrengthLevel: fallbackMax}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Capability lookup panicked, continuing without torch")
			c = none
		}
	}()

	handles, err := svc.ListDevices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list torch devices")
		return none
	}
	if len(handles) == 0 {
		log.Warn().Msg("No torch devices found")
		return none
	}

	h := handles[0]
	chars, err := svc.Characteristics(ctx, h)
	if err != nil {
		log.Error().Err(err).Str("device", string(h)).Msg("Failed to read torch characteristics")
		return none
	}

	maxLevel := chars.MaxStrengthLevel
	if maxLevel < 1 {
		maxLevel = fallbackMax
	}

	log.Info().
		Str("device", string(h)).
		Int("max_strength_level", maxLevel).
		Bool("available", chars.Available).
		Msg("Torch capability")

	return Capability{
		Handle:           h,
		MaxStrengthLevel: maxLevel,
		Available:        chars.Available,
	}
}

// ClampIntensity bounds v to [1, maxLevel].
func ClampIntensity(v, maxLevel int) int {
	if maxLevel < 1 {
		maxLevel = 1
	}
	if v < 1 {
		return 1
	}
	if v > maxLevel {
		return maxLevel
	}
	return v
}

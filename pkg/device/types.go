package device

import "time"

// Handle identifies a physical illumination unit. The zero value means no unit.
type Handle string

// Valid reports whether h refers to a unit.
func (h Handle) Valid() bool {
	return h != ""
}

// Characteristics is the read-once capability descriptor of a unit.
type Characteristics struct {
	MaxStrengthLevel int  `json:"max_strength_level"` // Highest accepted level, >= 1
	Available        bool `json:"available"`          // Whether the unit can be driven
}

// ChangeEvent reports a state change of a unit, whoever caused it.
type ChangeEvent struct {
	Handle    Handle    `json:"handle"`
	Kind      string    `json:"kind"`            // mode_changed or strength_changed
	Enabled   bool      `json:"enabled"`         // New enabled flag
	Level     int       `json:"level,omitempty"` // Current level, when the backend knows it
	Timestamp time.Time `json:"timestamp"`
}

// Change event kinds
const (
	EventModeChanged     = "mode_changed"
	EventStrengthChanged = "strength_changed"
)

// Backend names
const (
	BackendNone   = "none"
	BackendSysfs  = "sysfs"
	BackendSerial = "serial"
	BackendFake   = "fake"
)

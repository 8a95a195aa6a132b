package device

import "context"

// Service is the platform torch service. Backends (Linux LED class, serial
// controllers, the in-memory fake) implement it so the torch session can
// drive any of them through one interface.
type Service interface {
	// ListDevices returns the handles of all illumination-capable units,
	// in backend order.
	ListDevices(ctx context.Context) ([]Handle, error)

	// Characteristics reads the capability descriptor of a unit
	Characteristics(ctx context.Context, h Handle) (Characteristics, error)

	// SetEnabled switches a unit on at its default level or off
	SetEnabled(ctx context.Context, h Handle, enabled bool) error

	// SetEnabledWithStrength switches a unit on at the given level.
	// Calling it on a lit unit changes the level.
	SetEnabledWithStrength(ctx context.Context, h Handle, level int) error

	// StrengthLevel reads the level the unit is currently lit at
	StrengthLevel(ctx context.Context, h Handle) (int, error)

	// IsConnected returns true if the backend can reach its hardware
	IsConnected() bool

	// Close releases the backend
	Close()
}

// EventSubscriber delivers change events for all units of a backend.
type EventSubscriber interface {
	// Subscribe returns a channel that receives change events
	Subscribe() chan ChangeEvent

	// Unsubscribe removes a subscription and closes its channel
	Unsubscribe(ch chan ChangeEvent)
}

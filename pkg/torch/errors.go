package torch

import "errors"

var (
	// ErrNoDeviceFound indicates the host has no illumination-capable unit
	ErrNoDeviceFound = errors.New("no torch found")

	// ErrDeviceUnavailable indicates the unit exists but cannot be driven
	ErrDeviceUnavailable = errors.New("torch unavailable")

	// ErrAccessFailure indicates a device command failed at call time
	ErrAccessFailure = errors.New("torch access failure")

	// ErrIntensityOutOfRange indicates an intensity outside [1, max]
	ErrIntensityOutOfRange = errors.New("intensity out of range")

	// ErrSessionClosed indicates the session is not running
	ErrSessionClosed = errors.New("torch session is not running")

	// ErrNotificationNotFound indicates an unknown or dismissed notification
	ErrNotificationNotFound = errors.New("notification not found")
)

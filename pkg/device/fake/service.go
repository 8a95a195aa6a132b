package fake

import (
	"context"
	"sync"
	"time"

	"github.com/urmzd/torchd/pkg/device"
)

// Unit describes a simulated torch
type Unit struct {
	Handle           device.Handle
	MaxStrengthLevel int
	Available        bool
}

// Command records a command the service received
type Command struct {
	Op      string // set_enabled or set_enabled_with_strength
	Handle  device.Handle
	Enabled bool
	Level   int
}

// Command ops
const (
	OpSetEnabled             = "set_enabled"
	OpSetEnabledWithStrength = "set_enabled_with_strength"
)

type unitState struct {
	Unit
	enabled bool
	level   int
}

// Service simulates a platform torch service in memory. It emits change
// events the way real platforms do: for its own commands as well as for
// changes made by other actors (SetExternal).
type Service struct {
	device.Broadcaster

	mu       sync.Mutex
	units    []*unitState
	commands []Command

	listErr    error
	capsErr    error
	commandErr error
	levelErr   error
}

// NewService creates a fake backend holding the given units
func NewService(units ...Unit) *Service {
	s := &Service{}
	for _, u := range units {
		s.units = append(s.units, &unitState{Unit: u, level: u.MaxStrengthLevel})
	}
	return s
}

// FailList makes ListDevices return err (nil clears)
func (s *Service) FailList(err error) {
	s.mu.Lock()
	s.listErr = err
	s.mu.Unlock()
}

// FailCharacteristics makes Characteristics return err (nil clears)
func (s *Service) FailCharacteristics(err error) {
	s.mu.Lock()
	s.capsErr = err
	s.mu.Unlock()
}

// FailCommands makes every on/off/level command return err (nil clears).
// Failed commands are still recorded.
func (s *Service) FailCommands(err error) {
	s.mu.Lock()
	s.commandErr = err
	s.mu.Unlock()
}

// FailStrengthLevel makes StrengthLevel return err (nil clears)
func (s *Service) FailStrengthLevel(err error) {
	s.mu.Lock()
	s.levelErr = err
	s.mu.Unlock()
}

// Commands returns a copy of all commands received so far
func (s *Service) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// UnitState returns the simulated hardware state of a unit
func (s *Service) UnitState(h device.Handle) (enabled bool, level int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(h)
	if u == nil {
		return false, 0, false
	}
	return u.enabled, u.level, true
}

// SetExternal changes a unit as another process would and publishes the
// resulting change event. A level <= 0 keeps the current level.
func (s *Service) SetExternal(h device.Handle, enabled bool, level int) {
	s.mu.Lock()
	u := s.find(h)
	if u == nil {
		s.mu.Unlock()
		return
	}
	if level > 0 {
		u.level = level
	}
	if evt := s.applyLocked(u, enabled); evt != nil {
		s.Publish(*evt)
	}
	s.mu.Unlock()
}

func (s *Service) find(h device.Handle) *unitState {
	for _, u := range s.units {
		if u.Handle == h {
			return u
		}
	}
	return nil
}

// applyLocked switches u and returns the event to publish, if any. Callers
// publish before releasing mu so events follow the order of changes.
func (s *Service) applyLocked(u *unitState, enabled bool) *device.ChangeEvent {
	kind := device.EventModeChanged
	if u.enabled == enabled {
		if !enabled {
			return nil
		}
		kind = device.EventStrengthChanged
	}
	u.enabled = enabled
	return &device.ChangeEvent{
		Handle:    u.Handle,
		Kind:      kind,
		Enabled:   enabled,
		Level:     u.level,
		Timestamp: time.Now(),
	}
}

// --- device.Service interface ---

func (s *Service) ListDevices(_ context.Context) ([]device.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	handles := make([]device.Handle, 0, len(s.units))
	for _, u := range s.units {
		handles = append(handles, u.Handle)
	}
	return handles, nil
}

func (s *Service) Characteristics(_ context.Context, h device.Handle) (device.Characteristics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capsErr != nil {
		return device.Characteristics{}, s.capsErr
	}
	u := s.find(h)
	if u == nil {
		return device.Characteristics{}, device.ErrNotFound
	}
	return device.Characteristics{
		MaxStrengthLevel: u.MaxStrengthLevel,
		Available:        u.Available,
	}, nil
}

func (s *Service) SetEnabled(_ context.Context, h device.Handle, enabled bool) error {
	s.mu.Lock()
	s.commands = append(s.commands, Command{Op: OpSetEnabled, Handle: h, Enabled: enabled})
	if s.commandErr != nil {
		err := s.commandErr
		s.mu.Unlock()
		return err
	}
	u := s.find(h)
	if u == nil {
		s.mu.Unlock()
		return device.ErrNotFound
	}
	if enabled {
		u.level = u.MaxStrengthLevel
	}
	if evt := s.applyLocked(u, enabled); evt != nil {
		s.Publish(*evt)
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) SetEnabledWithStrength(_ context.Context, h device.Handle, level int) error {
	s.mu.Lock()
	s.commands = append(s.commands, Command{Op: OpSetEnabledWithStrength, Handle: h, Enabled: true, Level: level})
	if s.commandErr != nil {
		err := s.commandErr
		s.mu.Unlock()
		return err
	}
	u := s.find(h)
	if u == nil {
		s.mu.Unlock()
		return device.ErrNotFound
	}
	if level < 1 || level > u.MaxStrengthLevel {
		s.mu.Unlock()
		return device.ErrValidation
	}
	u.level = level
	s.Publish(*s.applyLocked(u, true))
	s.mu.Unlock()
	return nil
}

func (s *Service) StrengthLevel(_ context.Context, h device.Handle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.levelErr != nil {
		return 0, s.levelErr
	}
	u := s.find(h)
	if u == nil {
		return 0, device.ErrNotFound
	}
	return u.level, nil
}

func (s *Service) IsConnected() bool {
	return true
}

func (s *Service) Close() {}

package torch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/device"
)

// State is the torch session state. It is never persisted.
type State struct {
	Enabled   bool `json:"enabled"`
	Intensity int  `json:"intensity"`
}

// Update types
const (
	UpdateStateChanged = "state_changed"
	UpdateNotification = "notification"
)

// Update causes
const (
	CauseLocal    = "local"
	CauseExternal = "external"
)

// Update is delivered to watchers whenever the state changes or a
// notification is raised.
type Update struct {
	Type         string        `json:"type"`
	State        State         `json:"state"`
	Cause        string        `json:"cause,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// DefaultEchoWindow is how long a local command's change event is awaited
const DefaultEchoWindow = time.Second

// Options configures a session
type Options struct {
	// FallbackMaxStrengthLevel bounds intensity when no unit reports a maximum
	FallbackMaxStrengthLevel int

	// EchoWindow bounds how late the backend may report our own commands
	// and still have the report recognized as an echo
	EchoWindow time.Duration
}

// echo is the change event a successful local command should produce
type echo struct {
	enabled  bool
	level    int
	deadline time.Time
}

func (e echo) matches(evt device.ChangeEvent) bool {
	if e.enabled != evt.Enabled {
		return false
	}
	return !evt.Enabled || evt.Level <= 0 || evt.Level == e.level
}

type result struct {
	state State
	err   error
}

type command struct {
	ctx   context.Context
	fn    func(ctx context.Context) (State, error)
	reply chan result
}

// Session owns the torch state for the process lifetime. User commands and
// backend change events are both applied by a single goroutine, so the two
// never race.
type Session struct {
	svc  device.Service
	sub  device.EventSubscriber
	ctrl *Controller
	caps Capability

	echoWindow time.Duration
	// pending is touched only by the run loop
	pending []echo

	cmds    chan command
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool

	startOnce sync.Once
	closeOnce sync.Once

	// state is written only by the run loop; mu lets readers take snapshots
	mu    sync.RWMutex
	state State

	watchMu  sync.Mutex
	watchers []chan Update

	notifyMu      sync.Mutex
	notifications []Notification
}

// NewSession queries the backend for a torch and builds a session around it.
// The session starts Off at the maximum intensity.
func NewSession(ctx context.Context, svc device.Service, sub device.EventSubscriber, opts Options) *Session {
	caps := QueryCapability(ctx, svc, opts.FallbackMaxStrengthLevel)
	if opts.EchoWindow <= 0 {
		opts.EchoWindow = DefaultEchoWindow
	}
	return &Session{
		svc:        svc,
		sub:        sub,
		ctrl:       NewController(svc),
		caps:       caps,
		echoWindow: opts.EchoWindow,
		cmds: make(chan command),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		state: State{
			Enabled:   false,
			Intensity: caps.MaxStrengthLevel,
		},
	}
}

// Capability returns the result of the startup capability query
func (s *Session) Capability() Capability {
	return s.caps
}

// State returns a snapshot of the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start subscribes to backend change events and starts the owner goroutine.
// Calling Start more than once has no effect.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		events := s.sub.Subscribe()
		s.running.Store(true)
		go s.run(ctx, events)

		if !s.caps.Handle.Valid() {
			s.raise(newNotification(NotifyNoDeviceFound, "No torch found on this device"))
		}
		log.Info().Str("device", string(s.caps.Handle)).Msg("Torch session started")
	})
}

// Close stops the owner goroutine and releases the backend subscription.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if !s.running.Load() {
			return
		}
		close(s.stop)
		<-s.done
		log.Info().Msg("Torch session closed")
	})
}

func (s *Session) run(ctx context.Context, events chan device.ChangeEvent) {
	defer close(s.done)
	defer s.running.Store(false)
	defer s.sub.Unsubscribe(events)

	in := events
	for {
		select {
		case cmd := <-s.cmds:
			// Apply what the backend already reported before acting on it
			in = s.drain(ctx, in)
			st, err := cmd.fn(cmd.ctx)
			cmd.reply <- result{state: st, err: err}

		case evt, ok := <-in:
			if !ok {
				// Backend went away; keep serving commands
				in = nil
				continue
			}
			s.observe(ctx, evt)

		case <-s.stop:
			return

		case <-ctx.Done():
			return
		}
	}
}

// drain observes every event already queued on in. It returns nil once the
// backend closed the channel.
func (s *Session) drain(ctx context.Context, in chan device.ChangeEvent) chan device.ChangeEvent {
	for {
		select {
		case evt, ok := <-in:
			if !ok {
				return nil
			}
			s.observe(ctx, evt)
		default:
			return in
		}
	}
}

// submit runs fn on the owner goroutine and waits for its result
func (s *Session) submit(ctx context.Context, fn func(ctx context.Context) (State, error)) (State, error) {
	if !s.running.Load() {
		return s.State(), ErrSessionClosed
	}

	reply := make(chan result, 1)
	select {
	case s.cmds <- command{ctx: ctx, fn: fn, reply: reply}:
	case <-s.done:
		return s.State(), ErrSessionClosed
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}

	r := <-reply
	return r.state, r.err
}

// RequestToggle turns the torch on at the held intensity, or off. State
// only changes once the backend accepted the command.
func (s *Session) RequestToggle(ctx context.Context) (State, error) {
	return s.submit(ctx, s.toggle)
}

// RequestSetIntensity changes the held intensity. A lit torch is re-lit at
// the new level; an unlit torch stays off. v must already be in
// [1, MaxStrengthLevel]; use ClampIntensity on raw input.
func (s *Session) RequestSetIntensity(ctx context.Context, v int) (State, error) {
	return s.submit(ctx, func(ctx context.Context) (State, error) {
		return s.setIntensity(ctx, v)
	})
}

// RequestSetEnabled turns the torch on or off. Asking for the current
// state issues no device command.
func (s *Session) RequestSetEnabled(ctx context.Context, on bool) (State, error) {
	return s.submit(ctx, func(ctx context.Context) (State, error) {
		if cur := s.State(); cur.Enabled == on && s.caps.Usable() {
			return cur, nil
		}
		return s.toggle(ctx)
	})
}

func (s *Session) toggle(ctx context.Context) (State, error) {
	cur := s.State()

	if !s.caps.Usable() {
		s.raise(newNotification(NotifyDeviceUnavailable, "Torch not found or unavailable"))
		if !s.caps.Handle.Valid() {
			return cur, ErrNoDeviceFound
		}
		return cur, ErrDeviceUnavailable
	}

	if cur.Enabled {
		if err := s.ctrl.Disable(ctx, s.caps.Handle); err != nil {
			return cur, err
		}
		s.expectEcho(false, 0)
		return s.commit(State{Enabled: false, Intensity: cur.Intensity}, CauseLocal), nil
	}

	if err := s.ctrl.Enable(ctx, s.caps.Handle, cur.Intensity); err != nil {
		return cur, err
	}
	s.expectEcho(true, cur.Intensity)
	return s.commit(State{Enabled: true, Intensity: cur.Intensity}, CauseLocal), nil
}

func (s *Session) setIntensity(ctx context.Context, v int) (State, error) {
	cur := s.State()

	if v < 1 || v > s.caps.MaxStrengthLevel {
		return cur, ErrIntensityOutOfRange
	}

	if cur.Enabled {
		if err := s.ctrl.Enable(ctx, s.caps.Handle, v); err != nil {
			return cur, err
		}
		s.expectEcho(true, v)
	}
	return s.commit(State{Enabled: cur.Enabled, Intensity: v}, CauseLocal), nil
}

// observe reconciles the state with a backend change event. Echoes of our
// own commands, including late ones overtaken by a newer command, are
// skipped; everything else is an external change.
func (s *Session) observe(ctx context.Context, evt device.ChangeEvent) {
	if evt.Handle != s.caps.Handle {
		return
	}
	if s.consumeEcho(evt) {
		return
	}
	cur := s.State()

	switch {
	case !evt.Enabled:
		if cur.Enabled {
			s.commit(State{Enabled: false, Intensity: cur.Intensity}, CauseExternal)
		}

	case !cur.Enabled:
		// Turned on by someone else, possibly at another level
		level := s.readLevel(ctx, evt, cur.Intensity)
		s.commit(State{Enabled: true, Intensity: level}, CauseExternal)

	case evt.Kind == device.EventStrengthChanged && evt.Level > 0:
		level := ClampIntensity(evt.Level, s.caps.MaxStrengthLevel)
		if level != cur.Intensity {
			s.commit(State{Enabled: true, Intensity: level}, CauseExternal)
		}
	}
}

// expectEcho records the change event a just-accepted command will produce
func (s *Session) expectEcho(enabled bool, level int) {
	s.pending = append(s.pending, echo{
		enabled:  enabled,
		level:    level,
		deadline: time.Now().Add(s.echoWindow),
	})
}

// consumeEcho reports whether evt answers a pending local command. The
// matched entry and every older one are dropped, since the backend reports
// in command order.
func (s *Session) consumeEcho(evt device.ChangeEvent) bool {
	now := time.Now()
	live := s.pending[:0]
	for _, e := range s.pending {
		if now.Before(e.deadline) {
			live = append(live, e)
		}
	}
	s.pending = live

	for i, e := range s.pending {
		if e.matches(evt) {
			s.pending = append(s.pending[:0], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// readLevel asks the backend for the lit level, falling back to the event's
// level and then to the held intensity
func (s *Session) readLevel(ctx context.Context, evt device.ChangeEvent, held int) int {
	level, err := s.svc.StrengthLevel(ctx, s.caps.Handle)
	if err != nil {
		log.Warn().Err(err).Str("device", string(s.caps.Handle)).Msg("Failed to read torch strength level")
		level = evt.Level
	}
	if level < 1 {
		return held
	}
	return ClampIntensity(level, s.caps.MaxStrengthLevel)
}

// commit stores next and announces it; only the run loop calls it
func (s *Session) commit(next State, cause string) State {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev == next {
		return next
	}

	log.Info().
		Bool("enabled", next.Enabled).
		Int("intensity", next.Intensity).
		Str("cause", cause).
		Msg("Torch state changed")

	s.publish(Update{
		Type:      UpdateStateChanged,
		State:     next,
		Cause:     cause,
		Timestamp: time.Now(),
	})
	return next
}

// Watch returns a channel receiving state changes and notifications
func (s *Session) Watch() chan Update {
	ch := make(chan Update, 16)
	s.watchMu.Lock()
	s.watchers = append(s.watchers, ch)
	s.watchMu.Unlock()
	return ch
}

// Unwatch removes a watcher and closes its channel
func (s *Session) Unwatch(ch chan Update) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (s *Session) publish(u Update) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for _, ch := range s.watchers {
		select {
		case ch <- u:
		default:
		}
	}
}

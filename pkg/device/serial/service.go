package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/device"
)

// DefaultTimeout bounds how long a request waits for its reply
const DefaultTimeout = 2 * time.Second

// ErrRejected indicates the controller answered a request with ERR
var ErrRejected = errors.New("controller rejected request")

// Options configures a serial service
type Options struct {
	Timeout time.Duration
}

// Service talks to a microcontroller driving one or more torches over a
// newline-delimited text protocol:
//
//	LIST              -> OK <id> <id> ...
//	CAPS <id>         -> OK <max> <available 0|1>
//	ON <id> [<level>] -> OK
//	OFF <id>          -> OK
//	LEVEL <id>        -> OK <level>
//
// Failures are answered with "ERR <message>". The controller also sends
// unsolicited "EVT <id> ON|OFF <level>" lines whenever a torch changes,
// including changes made with its own buttons.
type Service struct {
	device.Broadcaster

	port    io.ReadWriteCloser
	timeout time.Duration

	reqMu   sync.Mutex
	replies chan string

	stateMu sync.Mutex
	enabled map[device.Handle]bool

	connected atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewService starts the protocol over an already open port
func NewService(port io.ReadWriteCloser, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	s := &Service{
		port:    port,
		timeout: opts.Timeout,
		replies: make(chan string, 1),
		enabled: make(map[device.Handle]bool),
		done:    make(chan struct{}),
	}
	s.connected.Store(true)

	go s.readLoop()

	return s
}

// readLoop splits incoming lines into replies and events
func (s *Service) readLoop() {
	defer close(s.done)
	defer s.connected.Store(false)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "EVT ") {
			s.handleEvent(line)
			continue
		}

		select {
		case s.replies <- line:
		default:
			log.Warn().Str("line", line).Msg("Dropping unsolicited serial reply")
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("Serial read failed")
	}
	log.Info().Msg("Serial reader stopped")
}

// handleEvent parses "EVT <id> ON|OFF <level>" and publishes it
func (s *Service) handleEvent(line string) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		log.Warn().Str("line", line).Msg("Malformed serial event")
		return
	}

	h := device.Handle(fields[1])
	enabled := strings.EqualFold(fields[2], "ON")

	level := 0
	if len(fields) > 3 {
		if v, err := strconv.Atoi(fields[3]); err == nil {
			level = v
		}
	}

	s.stateMu.Lock()
	was, seen := s.enabled[h]
	s.enabled[h] = enabled
	s.stateMu.Unlock()

	kind := device.EventModeChanged
	if seen && was && enabled {
		kind = device.EventStrengthChanged
	}

	s.Publish(device.ChangeEvent{
		Handle:    h,
		Kind:      kind,
		Enabled:   enabled,
		Level:     level,
		Timestamp: time.Now(),
	})
}

// request sends one command line and waits for its reply payload
func (s *Service) request(ctx context.Context, format string, args ...any) (string, error) {
	if !s.connected.Load() {
		return "", device.ErrNotConnected
	}

	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	// A reply that arrived after an earlier timeout must not answer this request
	select {
	case stale := <-s.replies:
		log.Debug().Str("line", stale).Msg("Discarding stale serial reply")
	default:
	}

	cmd := fmt.Sprintf(format, args...)
	if _, err := io.WriteString(s.port, cmd+"\n"); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case line := <-s.replies:
		switch {
		case line == "OK":
			return "", nil
		case strings.HasPrefix(line, "OK "):
			return strings.TrimSpace(line[3:]), nil
		case strings.HasPrefix(line, "ERR"):
			msg := strings.TrimSpace(strings.TrimPrefix(line, "ERR"))
			if strings.Contains(strings.ToLower(msg), "not found") {
				return "", fmt.Errorf("%s: %w", cmd, device.ErrNotFound)
			}
			return "", fmt.Errorf("%s: %w: %s", cmd, ErrRejected, msg)
		default:
			return "", fmt.Errorf("%s: unexpected reply %q", cmd, line)
		}
	case <-timer.C:
		return "", fmt.Errorf("%s: %w", cmd, device.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		return "", device.ErrNotConnected
	}
}

func validHandle(h device.Handle) error {
	if !h.Valid() || strings.ContainsAny(string(h), " \t\r\n") {
		return device.ErrNotFound
	}
	return nil
}

// --- device.Service interface ---

func (s *Service) ListDevices(ctx context.Context) ([]device.Handle, error) {
	payload, err := s.request(ctx, "LIST")
	if err != nil {
		return nil, err
	}

	var handles []device.Handle
	for _, id := range strings.Fields(payload) {
		handles = append(handles, device.Handle(id))
	}
	return handles, nil
}

func (s *Service) Characteristics(ctx context.Context, h device.Handle) (device.Characteristics, error) {
	if err := validHandle(h); err != nil {
		return device.Characteristics{}, err
	}
	payload, err := s.request(ctx, "CAPS %s", h)
	if err != nil {
		return device.Characteristics{}, err
	}

	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return device.Characteristics{}, fmt.Errorf("CAPS %s: malformed reply %q", h, payload)
	}
	maxLevel, err := strconv.Atoi(fields[0])
	if err != nil {
		return device.Characteristics{}, fmt.Errorf("CAPS %s: parse max level: %w", h, err)
	}

	return device.Characteristics{
		MaxStrengthLevel: maxLevel,
		Available:        fields[1] == "1",
	}, nil
}

func (s *Service) SetEnabled(ctx context.Context, h device.Handle, enabled bool) error {
	if err := validHandle(h); err != nil {
		return err
	}
	if enabled {
		_, err := s.request(ctx, "ON %s", h)
		return err
	}
	_, err := s.request(ctx, "OFF %s", h)
	return err
}

func (s *Service) SetEnabledWithStrength(ctx context.Context, h device.Handle, level int) error {
	if err := validHandle(h); err != nil {
		return err
	}
	if level < 1 {
		return fmt.Errorf("%w: level %d", device.ErrValidation, level)
	}
	_, err := s.request(ctx, "ON %s %d", h, level)
	return err
}

func (s *Service) StrengthLevel(ctx context.Context, h device.Handle) (int, error) {
	if err := validHandle(h); err != nil {
		return 0, err
	}
	payload, err := s.request(ctx, "LEVEL %s", h)
	if err != nil {
		return 0, err
	}
	level, err := strconv.Atoi(payload)
	if err != nil {
		return 0, fmt.Errorf("LEVEL %s: parse level: %w", h, err)
	}
	return level, nil
}

func (s *Service) IsConnected() bool {
	return s.connected.Load()
}

func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		if err := s.port.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close serial port")
		}
		log.Info().Msg("Serial torch controller closed")
	})
}

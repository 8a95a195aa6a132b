package sysfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/device"
)

// DefaultRoot is where the kernel exposes the LED class
const DefaultRoot = "/sys/class/leds"

// DefaultPollInterval is how often Watch samples brightness
const DefaultPollInterval = 250 * time.Millisecond

// LED class attribute files
const (
	attrBrightness    = "brightness"
	attrMaxBrightness = "max_brightness"
)

// Service drives camera flash LEDs through the Linux LED class. Units are
// the LED entries whose function is "flash" or "torch", e.g. "white:flash".
type Service struct {
	device.Broadcaster

	root     string
	interval time.Duration

	mu   sync.Mutex
	last map[device.Handle]int
}

// NewService opens the LED class directory at root
func NewService(root string, interval time.Duration) (*Service, error) {
	if root == "" {
		root = DefaultRoot
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open led class %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open led class %s: not a directory", root)
	}

	log.Info().Str("root", root).Dur("poll_interval", interval).Msg("LED class backend opened")

	return &Service{
		root:     root,
		interval: interval,
		last:     make(map[device.Handle]int),
	}, nil
}

// IsTorchName reports whether an LED class entry name denotes a flash unit.
// LED names follow "devicename:color:function"; the function is the last field.
func IsTorchName(name string) bool {
	i := strings.LastIndex(name, ":")
	if i < 0 {
		return false
	}
	fn := strings.ToLower(name[i+1:])
	return fn == "flash" || fn == "torch"
}

func (s *Service) attrPath(h device.Handle, attr string) (string, error) {
	name := string(h)
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return "", device.ErrNotFound
	}
	return filepath.Join(s.root, name, attr), nil
}

func (s *Service) readInt(h device.Handle, attr string) (int, error) {
	path, err := s.attrPath(h, attr)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", device.ErrNotFound, path)
		}
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func (s *Service) writeBrightness(h device.Handle, level int) error {
	path, err := s.attrPath(h, attrBrightness)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(level)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// --- device.Service interface ---

func (s *Service) ListDevices(_ context.Context) ([]device.Handle, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}

	// ReadDir returns entries sorted by name
	var handles []device.Handle
	for _, e := range entries {
		if IsTorchName(e.Name()) {
			handles = append(handles, device.Handle(e.Name()))
		}
	}
	return handles, nil
}

func (s *Service) Characteristics(_ context.Context, h device.Handle) (device.Characteristics, error) {
	maxLevel, err := s.readInt(h, attrMaxBrightness)
	if err != nil {
		return device.Characteristics{}, err
	}

	available := false
	if path, err := s.attrPath(h, attrBrightness); err == nil {
		if f, err := os.OpenFile(path, os.O_WRONLY, 0); err == nil {
			_ = f.Close()
			available = true
		}
	}

	return device.Characteristics{
		MaxStrengthLevel: maxLevel,
		Available:        available,
	}, nil
}

func (s *Service) SetEnabled(ctx context.Context, h device.Handle, enabled bool) error {
	if !enabled {
		return s.writeBrightness(h, 0)
	}
	maxLevel, err := s.readInt(h, attrMaxBrightness)
	if err != nil {
		return err
	}
	return s.writeBrightness(h, maxLevel)
}

func (s *Service) SetEnabledWithStrength(_ context.Context, h device.Handle, level int) error {
	maxLevel, err := s.readInt(h, attrMaxBrightness)
	if err != nil {
		return err
	}
	if level < 1 || level > maxLevel {
		return fmt.Errorf("%w: level %d outside [1, %d]", device.ErrValidation, level, maxLevel)
	}
	return s.writeBrightness(h, level)
}

func (s *Service) StrengthLevel(_ context.Context, h device.Handle) (int, error) {
	return s.readInt(h, attrBrightness)
}

func (s *Service) IsConnected() bool {
	_, err := os.Stat(s.root)
	return err == nil
}

func (s *Service) Close() {}

// Watch samples the brightness of every unit until ctx is cancelled and
// publishes a change event whenever it moves. The LED class has no change
// notification for flash units, so polling is the only option.
func (s *Service) Watch(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("Starting LED brightness watcher")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample(ctx)

	for {
		select {
		case <-ticker.C:
			s.sample(ctx)

		case <-ctx.Done():
			log.Info().Msg("Stopping LED brightness watcher")
			return
		}
	}
}

// sample reads all units once and publishes their changes
func (s *Service) sample(ctx context.Context) {
	handles, err := s.ListDevices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list LEDs")
		return
	}

	for _, h := range handles {
		level, err := s.readInt(h, attrBrightness)
		if err != nil {
			log.Debug().Err(err).Str("device", string(h)).Msg("Failed to sample brightness")
			continue
		}

		s.mu.Lock()
		prev, seen := s.last[h]
		s.last[h] = level
		s.mu.Unlock()

		if !seen || prev == level {
			continue
		}

		evt := device.ChangeEvent{
			Handle:    h,
			Kind:      device.EventStrengthChanged,
			Enabled:   level > 0,
			Level:     level,
			Timestamp: time.Now(),
		}
		if (prev > 0) != (level > 0) {
			evt.Kind = device.EventModeChanged
		}

		log.Debug().
			Str("device", string(h)).
			Int("from", prev).
			Int("to", level).
			Msg("LED brightness changed")

		s.Publish(evt)
	}
}

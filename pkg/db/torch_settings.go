package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/urmzd/torchd/pkg/device"
)

var ErrTorchSettingsNotFound = errors.New("torch settings not found")

// Backend names accepted in torch_settings.backend.
const (
	BackendSysfs  = device.BackendSysfs
	BackendSerial = device.BackendSerial
	BackendFake   = device.BackendFake
	BackendNone   = device.BackendNone
)

// TorchSettings selects and parameterizes the torch backend of a profile.
type TorchSettings struct {
	ID               int64
	ProfileID        int64
	Backend          string
	SysfsRoot        string
	SerialPort       string
	FallbackMaxLevel int
	PollInterval     time.Duration
	UpdatedAt        time.Time
}

// Validate checks field ranges before a write.
func (t *TorchSettings) Validate() error {
	switch t.Backend {
	case BackendSysfs, BackendSerial, BackendFake, BackendNone:
	default:
		return fmt.Errorf("unknown torch backend %q", t.Backend)
	}
	if t.FallbackMaxLevel < 1 {
		return fmt.Errorf("fallback max level must be >= 1, got %d", t.FallbackMaxLevel)
	}
	if t.PollInterval < time.Millisecond {
		return fmt.Errorf("poll interval must be at least 1ms, got %s", t.PollInterval)
	}
	return nil
}

// TorchSettingsStore reads and writes torch settings.
type TorchSettingsStore interface {
	Get(ctx context.Context, profileID int64) (*TorchSettings, error)
	Update(ctx context.Context, t *TorchSettings) error
}

// TorchSettings returns a TorchSettingsStore for this database.
func (db *DB) TorchSettings() TorchSettingsStore {
	return &torchSettingsStore{db: db}
}

type torchSettingsStore struct {
	db *DB
}

func (s *torchSettingsStore) Get(ctx context.Context, profileID int64) (*TorchSettings, error) {
	t := &TorchSettings{}
	var pollMS int64
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, backend, sysfs_root, serial_port,
		       fallback_max_level, poll_interval_ms, updated_at
		FROM torch_settings WHERE profile_id = ?
	`, profileID).Scan(&t.ID, &t.ProfileID, &t.Backend, &t.SysfsRoot, &t.SerialPort,
		&t.FallbackMaxLevel, &pollMS, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTorchSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	t.PollInterval = time.Duration(pollMS) * time.Millisecond
	t.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return t, nil
}

func (s *torchSettingsStore) Update(ctx context.Context, t *TorchSettings) error {
	if err := t.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE torch_settings
		SET backend = ?, sysfs_root = ?, serial_port = ?,
		    fallback_max_level = ?, poll_interval_ms = ?, updated_at = datetime('now')
		WHERE profile_id = ?
	`, t.Backend, t.SysfsRoot, t.SerialPort, t.FallbackMaxLevel,
		t.PollInterval.Milliseconds(), t.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to update torch settings: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrTorchSettingsNotFound
	}
	return nil
}

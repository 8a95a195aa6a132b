package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
	Torch     *TorchSettings
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return "127.0.0.1:8080"
	}
	return c.APIServer.Address()
}

// TorchSettings returns the torch settings, or the schema defaults when the
// profile has none.
func (c *Config) TorchSettings() TorchSettings {
	if c.Torch == nil {
		return TorchSettings{
			Backend:          BackendSysfs,
			SysfsRoot:        "/sys/class/leds",
			FallbackMaxLevel: 45,
			PollInterval:     250 * time.Millisecond,
		}
	}
	return *c.Torch
}

// EnvOverrides holds TORCHD_* environment variables. Unset variables stay nil.
type EnvOverrides struct {
	Backend          *string        `env:"TORCHD_BACKEND"`
	SysfsRoot        *string        `env:"TORCHD_SYSFS_ROOT"`
	SerialPort       *string        `env:"TORCHD_SERIAL_PORT"`
	FallbackMaxLevel *int           `env:"TORCHD_FALLBACK_MAX_LEVEL"`
	PollInterval     *time.Duration `env:"TORCHD_POLL_INTERVAL"`
	APIHost          *string        `env:"TORCHD_API_HOST"`
	APIPort          *int           `env:"TORCHD_API_PORT"`
}

// ApplyEnv overlays TORCHD_* environment variables on the stored settings.
// Overrides are not written back to the database.
func (c *Config) ApplyEnv() error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	torch := c.TorchSettings()
	if o.Backend != nil {
		torch.Backend = *o.Backend
	}
	if o.SysfsRoot != nil {
		torch.SysfsRoot = *o.SysfsRoot
	}
	if o.SerialPort != nil {
		torch.SerialPort = *o.SerialPort
	}
	if o.FallbackMaxLevel != nil {
		torch.FallbackMaxLevel = *o.FallbackMaxLevel
	}
	if o.PollInterval != nil {
		torch.PollInterval = *o.PollInterval
	}
	if err := torch.Validate(); err != nil {
		return fmt.Errorf("invalid torch override: %w", err)
	}
	c.Torch = &torch

	if o.APIHost != nil || o.APIPort != nil {
		api := APIServer{Host: "127.0.0.1", Port: 8080}
		if c.APIServer != nil {
			api = *c.APIServer
		}
		if o.APIHost != nil {
			api.Host = *o.APIHost
		}
		if o.APIPort != nil {
			api.Port = *o.APIPort
		}
		c.APIServer = &api
	}

	log.Debug().
		Str("backend", torch.Backend).
		Str("api", c.APIAddress()).
		Msg("Configuration resolved")
	return nil
}

// ActiveConfig loads the complete configuration for the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{
		Profile: profile,
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	config.APIServer = apiServer

	torch, err := db.TorchSettings().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrTorchSettingsNotFound) {
		return nil, fmt.Errorf("failed to get torch settings: %w", err)
	}
	config.Torch = torch

	return config, nil
}

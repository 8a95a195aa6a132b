package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/torchd/pkg/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "torchd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Setup(context.Background()))
	return d
}

func TestSetupBootstrapsDefaults(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	version, err := d.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	needs, err := d.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, needs)

	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Profile.Name)
	assert.Equal(t, "127.0.0.1:8080", cfg.APIAddress())

	torch := cfg.TorchSettings()
	assert.Equal(t, db.BackendSysfs, torch.Backend)
	assert.Equal(t, "/sys/class/leds", torch.SysfsRoot)
	assert.Equal(t, 45, torch.FallbackMaxLevel)
	assert.Equal(t, 250*time.Millisecond, torch.PollInterval)
}

func TestSetupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	require.NoError(t, d.Setup(ctx))

	profiles, err := d.Profiles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestTorchSettingsUpdate(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)

	settings := cfg.TorchSettings()
	settings.Backend = db.BackendSerial
	settings.SerialPort = "/dev/ttyUSB0"
	settings.FallbackMaxLevel = 15
	settings.PollInterval = time.Second
	require.NoError(t, d.TorchSettings().Update(ctx, &settings))

	got, err := d.TorchSettings().Get(ctx, cfg.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BackendSerial, got.Backend)
	assert.Equal(t, "/dev/ttyUSB0", got.SerialPort)
	assert.Equal(t, 15, got.FallbackMaxLevel)
	assert.Equal(t, time.Second, got.PollInterval)

	settings.FallbackMaxLevel = 0
	assert.Error(t, d.TorchSettings().Update(ctx, &settings))

	settings.FallbackMaxLevel = 15
	settings.Backend = "bluetooth"
	assert.Error(t, d.TorchSettings().Update(ctx, &settings))

	_, err = d.TorchSettings().Get(ctx, 999)
	assert.ErrorIs(t, err, db.ErrTorchSettingsNotFound)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	store := d.Profiles()

	bench := &db.Profile{Name: "bench"}
	require.NoError(t, store.Create(ctx, bench))
	assert.NotZero(t, bench.ID)

	_, err := d.TorchSettings().Get(ctx, bench.ID)
	require.NoError(t, err, "create should seed torch settings")

	require.NoError(t, store.SetActive(ctx, bench.ID))
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bench", active.Name)

	byName, err := store.GetByName(ctx, "default")
	require.NoError(t, err)
	assert.False(t, byName.IsActive)

	assert.ErrorIs(t, store.SetActive(ctx, 999), db.ErrProfileNotFound)

	require.NoError(t, store.Delete(ctx, bench.ID))
	_, err = store.Get(ctx, bench.ID)
	assert.ErrorIs(t, err, db.ErrProfileNotFound)
	_, err = d.TorchSettings().Get(ctx, bench.ID)
	assert.ErrorIs(t, err, db.ErrTorchSettingsNotFound)

	_, err = d.ActiveConfig(ctx)
	assert.ErrorIs(t, err, db.ErrNoActiveProfile)
}

func TestAPIServerUpdate(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)

	api := *cfg.APIServer
	api.Port = 9090
	require.NoError(t, d.APIServers().Update(ctx, &api))

	api.Port = 0
	assert.Error(t, d.APIServers().Update(ctx, &api))

	cfg, err = d.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.APIAddress())
}

func TestApplyEnv(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)

	t.Setenv("TORCHD_BACKEND", "fake")
	t.Setenv("TORCHD_FALLBACK_MAX_LEVEL", "20")
	t.Setenv("TORCHD_POLL_INTERVAL", "1s")
	t.Setenv("TORCHD_API_PORT", "9999")

	require.NoError(t, cfg.ApplyEnv())
	torch := cfg.TorchSettings()
	assert.Equal(t, db.BackendFake, torch.Backend)
	assert.Equal(t, 20, torch.FallbackMaxLevel)
	assert.Equal(t, time.Second, torch.PollInterval)
	assert.Equal(t, "/sys/class/leds", torch.SysfsRoot)
	assert.Equal(t, "127.0.0.1:9999", cfg.APIAddress())

	stored, err := d.TorchSettings().Get(ctx, cfg.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BackendSysfs, stored.Backend, "overrides are not persisted")
}

func TestApplyEnvRejectsInvalid(t *testing.T) {
	cfg := &db.Config{}
	t.Setenv("TORCHD_FALLBACK_MAX_LEVEL", "0")
	assert.Error(t, cfg.ApplyEnv())

	t.Setenv("TORCHD_FALLBACK_MAX_LEVEL", "abc")
	assert.Error(t, cfg.ApplyEnv())
}

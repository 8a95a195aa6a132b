package sysfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/torchd/pkg/device"
)

// ledTree builds a fake LED class directory
func ledTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	mk := func(name string, attrs map[string]string) {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0755))
		for k, v := range attrs {
			require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v+"\n"), 0644))
		}
	}

	mk("white:flash", map[string]string{"brightness": "0", "max_brightness": "45"})
	mk("yellow:torch", map[string]string{"brightness": "0", "max_brightness": "10"})
	mk("input3::capslock", map[string]string{"brightness": "0", "max_brightness": "1"})
	mk("mmc0::", map[string]string{"brightness": "0", "max_brightness": "255"})
	mk("broken:flash", map[string]string{"max_brightness": "7"})
	return root
}

func readBrightness(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name, "brightness"))
	require.NoError(t, err)
	return string(data)
}

func TestIsTorchName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "white:flash", want: true},
		{name: "led0:torch", want: true},
		{name: "platform:white:FLASH", want: true},
		{name: "input3::capslock", want: false},
		{name: "mmc0::", want: false},
		{name: "flash", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTorchName(tt.name))
		})
	}
}

func TestNewService_MissingRoot(t *testing.T) {
	_, err := NewService(filepath.Join(t.TempDir(), "nope"), 0)
	assert.Error(t, err)
}

func TestService_ListDevices(t *testing.T) {
	s, err := NewService(ledTree(t), time.Millisecond)
	require.NoError(t, err)

	handles, err := s.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []device.Handle{"broken:flash", "white:flash", "yellow:torch"}, handles)
}

func TestService_Characteristics(t *testing.T) {
	s, err := NewService(ledTree(t), time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	c, err := s.Characteristics(ctx, "white:flash")
	require.NoError(t, err)
	assert.Equal(t, device.Characteristics{MaxStrengthLevel: 45, Available: true}, c)

	c, err = s.Characteristics(ctx, "broken:flash")
	require.NoError(t, err)
	assert.False(t, c.Available, "no brightness attribute means the unit cannot be driven")

	_, err = s.Characteristics(ctx, "missing:flash")
	assert.ErrorIs(t, err, device.ErrNotFound)

	_, err = s.Characteristics(ctx, "../etc")
	assert.ErrorIs(t, err, device.ErrNotFound)
}

func TestService_Commands(t *testing.T) {
	root := ledTree(t)
	s, err := NewService(root, time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SetEnabledWithStrength(ctx, "white:flash", 30))
	assert.Equal(t, "30", readBrightness(t, root, "white:flash"))

	level, err := s.StrengthLevel(ctx, "white:flash")
	require.NoError(t, err)
	assert.Equal(t, 30, level)

	require.NoError(t, s.SetEnabled(ctx, "white:flash", false))
	assert.Equal(t, "0", readBrightness(t, root, "white:flash"))

	require.NoError(t, s.SetEnabled(ctx, "white:flash", true))
	assert.Equal(t, "45", readBrightness(t, root, "white:flash"))

	assert.ErrorIs(t, s.SetEnabledWithStrength(ctx, "white:flash", 46), device.ErrValidation)
	assert.ErrorIs(t, s.SetEnabledWithStrength(ctx, "white:flash", 0), device.ErrValidation)
}

func TestService_WatchPublishesChanges(t *testing.T) {
	root := ledTree(t)
	s, err := NewService(root, 5*time.Millisecond)
	require.NoError(t, err)

	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Watch(ctx)

	// Let the first sample establish the baseline
	time.Sleep(20 * time.Millisecond)

	// Another process lights the unit
	require.NoError(t, os.WriteFile(filepath.Join(root, "white:flash", "brightness"), []byte("12"), 0644))

	evt := waitEvent(t, ch)
	assert.Equal(t, device.Handle("white:flash"), evt.Handle)
	assert.Equal(t, device.EventModeChanged, evt.Kind)
	assert.True(t, evt.Enabled)
	assert.Equal(t, 12, evt.Level)

	require.NoError(t, os.WriteFile(filepath.Join(root, "white:flash", "brightness"), []byte("20"), 0644))
	evt = waitEvent(t, ch)
	assert.Equal(t, device.EventStrengthChanged, evt.Kind)
	assert.Equal(t, 20, evt.Level)

	require.NoError(t, os.WriteFile(filepath.Join(root, "white:flash", "brightness"), []byte("0"), 0644))
	evt = waitEvent(t, ch)
	assert.Equal(t, device.EventModeChanged, evt.Kind)
	assert.False(t, evt.Enabled)
}

func waitEvent(t *testing.T, ch chan device.ChangeEvent) device.ChangeEvent {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return device.ChangeEvent{}
	}
}

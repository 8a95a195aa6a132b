package serial

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/torchd/pkg/device"
)

// firmware emulates a torch controller on the far end of the link
type firmware struct {
	conn net.Conn

	mu       sync.Mutex
	level    int
	on       bool
	received []string
	silent   bool
}

func (f *firmware) serve() {
	scanner := bufio.NewScanner(f.conn)
	for scanner.Scan() {
		line := scanner.Text()

		f.mu.Lock()
		f.received = append(f.received, line)
		silent := f.silent
		f.mu.Unlock()
		if silent {
			continue
		}

		fmt.Fprintln(f.conn, f.reply(strings.Fields(line)))
	}
}

func (f *firmware) reply(fields []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(fields) > 1 && fields[1] != "rear" {
		return "ERR device not found"
	}

	switch fields[0] {
	case "LIST":
		return "OK rear"
	case "CAPS":
		return "OK 15 1"
	case "ON":
		f.on = true
		f.level = 15
		if len(fields) > 2 {
			v, _ := strconv.Atoi(fields[2])
			if v > 15 {
				return "ERR level too high"
			}
			f.level = v
		}
		return "OK"
	case "OFF":
		f.on = false
		return "OK"
	case "LEVEL":
		return fmt.Sprintf("OK %d", f.level)
	}
	return "ERR unknown command"
}

func (f *firmware) push(line string) {
	fmt.Fprintln(f.conn, line)
}

func (f *firmware) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func newLink(t *testing.T, timeout time.Duration) (*Service, *firmware) {
	t.Helper()
	host, remote := net.Pipe()
	fw := &firmware{conn: remote}
	go fw.serve()

	s := NewService(host, Options{Timeout: timeout})
	t.Cleanup(func() {
		s.Close()
		_ = remote.Close()
	})
	return s, fw
}

func TestService_Discovery(t *testing.T) {
	s, _ := newLink(t, time.Second)
	ctx := context.Background()

	handles, err := s.ListDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []device.Handle{"rear"}, handles)

	c, err := s.Characteristics(ctx, "rear")
	require.NoError(t, err)
	assert.Equal(t, device.Characteristics{MaxStrengthLevel: 15, Available: true}, c)

	_, err = s.Characteristics(ctx, "front")
	assert.ErrorIs(t, err, device.ErrNotFound)
}

func TestService_Commands(t *testing.T) {
	s, fw := newLink(t, time.Second)
	ctx := context.Background()

	require.NoError(t, s.SetEnabledWithStrength(ctx, "rear", 7))
	level, err := s.StrengthLevel(ctx, "rear")
	require.NoError(t, err)
	assert.Equal(t, 7, level)

	require.NoError(t, s.SetEnabled(ctx, "rear", false))
	require.NoError(t, s.SetEnabled(ctx, "rear", true))

	err = s.SetEnabledWithStrength(ctx, "rear", 16)
	assert.ErrorIs(t, err, ErrRejected)

	assert.ErrorIs(t, s.SetEnabledWithStrength(ctx, "rear", 0), device.ErrValidation)
	assert.ErrorIs(t, s.SetEnabled(ctx, "bad id", true), device.ErrNotFound)

	assert.Equal(t, []string{"ON rear 7", "LEVEL rear", "OFF rear", "ON rear", "ON rear 16"}, fw.commands())
}

func TestService_Timeout(t *testing.T) {
	s, fw := newLink(t, 20*time.Millisecond)
	fw.mu.Lock()
	fw.silent = true
	fw.mu.Unlock()

	_, err := s.ListDevices(context.Background())
	assert.ErrorIs(t, err, device.ErrTimeout)
}

func TestService_Events(t *testing.T) {
	s, fw := newLink(t, time.Second)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	go fw.push("EVT rear ON 9")
	evt := waitEvent(t, ch)
	assert.Equal(t, device.ChangeEvent{Handle: "rear", Kind: device.EventModeChanged, Enabled: true, Level: 9, Timestamp: evt.Timestamp}, evt)

	go fw.push("EVT rear ON 3")
	evt = waitEvent(t, ch)
	assert.Equal(t, device.EventStrengthChanged, evt.Kind)
	assert.Equal(t, 3, evt.Level)

	go fw.push("EVT rear OFF 0")
	evt = waitEvent(t, ch)
	assert.Equal(t, device.EventModeChanged, evt.Kind)
	assert.False(t, evt.Enabled)
}

func TestService_CloseDisconnects(t *testing.T) {
	s, _ := newLink(t, time.Second)
	s.Close()

	require.Eventually(t, func() bool { return !s.IsConnected() }, time.Second, 5*time.Millisecond)
	_, err := s.ListDevices(context.Background())
	assert.ErrorIs(t, err, device.ErrNotConnected)
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

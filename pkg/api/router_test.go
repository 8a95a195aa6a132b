package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/torchd/pkg/api"
	"github.com/urmzd/torchd/pkg/api/types"
	"github.com/urmzd/torchd/pkg/device"
	"github.com/urmzd/torchd/pkg/device/fake"
	"github.com/urmzd/torchd/pkg/device/schema"
	"github.com/urmzd/torchd/pkg/torch"
)

const flash device.Handle = "white:flash"

type fixture struct {
	svc     *fake.Service
	session *torch.Session
	handler http.Handler
}

func newFixture(t *testing.T, units ...fake.Unit) *fixture {
	t.Helper()
	svc := fake.NewService(units...)
	session := torch.NewSession(context.Background(), svc, svc, torch.Options{})
	session.Start(context.Background())
	t.Cleanup(session.Close)

	router := api.NewRouter(svc, session, schema.NewValidator())
	return &fixture{svc: svc, session: session, handler: router.Handler()}
}

func newTorchFixture(t *testing.T) *fixture {
	return newFixture(t, fake.Unit{Handle: flash, MaxStrengthLevel: 45, Available: true})
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newTorchFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Backend)
	assert.Equal(t, "available", resp.Device)

	rec = f.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthWithoutDevice(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[types.HealthResponse](t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "missing", resp.Device)
}

func TestGetTorch(t *testing.T) {
	f := newTorchFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/torch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.TorchResponse](t, rec)
	assert.Equal(t, "white:flash", resp.Capability.Device)
	assert.Equal(t, 45, resp.Capability.MaxStrengthLevel)
	assert.True(t, resp.Capability.Available)
	assert.Equal(t, torch.State{Enabled: false, Intensity: 45}, resp.State)
}

func TestSliderThenToggle(t *testing.T) {
	f := newTorchFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/torch/intensity", `{"intensity": 30}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, torch.State{Enabled: false, Intensity: 30}, decode[types.TorchResponse](t, rec).State)
	assert.Empty(t, f.svc.Commands())

	rec = f.do(t, http.MethodPost, "/api/v1/torch/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, torch.State{Enabled: true, Intensity: 30}, decode[types.TorchResponse](t, rec).State)
	assert.Equal(t, []fake.Command{
		{Op: fake.OpSetEnabledWithStrength, Handle: flash, Enabled: true, Level: 30},
	}, f.svc.Commands())
}

func TestSetIntensityClamps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"above max", `{"intensity": 100}`, 45},
		{"zero", `{"intensity": 0}`, 1},
		{"negative", `{"intensity": -5}`, 1},
		{"integral float", `{"intensity": 12.0}`, 12},
		{"exponent", `{"intensity": 1e30}`, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTorchFixture(t)
			rec := f.do(t, http.MethodPut, "/api/v1/torch/intensity", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[types.TorchResponse](t, rec).State.Intensity)
		})
	}
}

func TestSetIntensityRejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `intensity=3`},
		{"missing field", `{}`},
		{"string", `{"intensity": "3"}`},
		{"fraction", `{"intensity": 2.5}`},
		{"extra field", `{"intensity": 3, "enabled": true}`},
		{"array", `[3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTorchFixture(t)
			rec := f.do(t, http.MethodPut, "/api/v1/torch/intensity", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, torch.State{Enabled: false, Intensity: 45}, f.session.State())
		})
	}
}

func TestSetTorch(t *testing.T) {
	f := newTorchFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/v1/torch", `{"enabled": true, "intensity": 10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, torch.State{Enabled: true, Intensity: 10}, decode[types.TorchResponse](t, rec).State)
	assert.Equal(t, []fake.Command{
		{Op: fake.OpSetEnabledWithStrength, Handle: flash, Enabled: true, Level: 10},
	}, f.svc.Commands())

	rec = f.do(t, http.MethodPatch, "/api/v1/torch", `{"enabled": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, torch.State{Enabled: false, Intensity: 10}, decode[types.TorchResponse](t, rec).State)

	rec = f.do(t, http.MethodPatch, "/api/v1/torch", `{"intensity": 46}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/v1/torch", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleWithoutDevice(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/torch/toggle", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_device_found", decode[types.ErrorResponse](t, rec).Error)

	rec = f.do(t, http.MethodGet, "/api/v1/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.NotificationsResponse](t, rec)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, torch.NotifyNoDeviceFound, resp.Notifications[0].Kind)
	assert.Equal(t, torch.NotifyDeviceUnavailable, resp.Notifications[1].Kind)
}

func TestToggleUnavailableDevice(t *testing.T) {
	f := newFixture(t, fake.Unit{Handle: flash, MaxStrengthLevel: 45, Available: false})

	rec := f.do(t, http.MethodPost, "/api/v1/torch/toggle", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "device_unavailable", decode[types.ErrorResponse](t, rec).Error)
}

func TestToggleAccessFailure(t *testing.T) {
	f := newTorchFixture(t)
	f.svc.FailCommands(assert.AnError)

	rec := f.do(t, http.MethodPost, "/api/v1/torch/toggle", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "access_failure", decode[types.ErrorResponse](t, rec).Error)
	assert.False(t, f.session.State().Enabled)
}

func TestToggleAfterClose(t *testing.T) {
	f := newTorchFixture(t)
	f.session.Close()

	rec := f.do(t, http.MethodPost, "/api/v1/torch/toggle", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDismissNotification(t *testing.T) {
	f := newFixture(t)

	ns := f.session.Notifications()
	require.Len(t, ns, 1)

	rec := f.do(t, http.MethodDelete, "/api/v1/notifications/"+ns[0].ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.session.Notifications())

	rec = f.do(t, http.MethodDelete, "/api/v1/notifications/"+ns[0].ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocsRedirect(t *testing.T) {
	f := newTorchFixture(t)

	rec := f.do(t, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/swagger/index.html", rec.Header().Get("Location"))
}

func TestEventsStream(t *testing.T) {
	f := newTorchFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/torch/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				events <- name
			}
		}
	}()

	next := func() string {
		select {
		case name := <-events:
			return name
		case <-ctx.Done():
			t.Fatal("timed out waiting for SSE event")
			return ""
		}
	}

	require.Equal(t, "connected", next())

	// Another actor lights the torch
	f.svc.SetExternal(flash, true, 20)
	assert.Equal(t, torch.UpdateStateChanged, next())
}

func TestRequestID(t *testing.T) {
	f := newTorchFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/torch", "")
	assert.NotEmpty(t, rec.Header().Get(api.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/torch", nil)
	req.Header.Set(api.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(api.RequestIDHeader))
}

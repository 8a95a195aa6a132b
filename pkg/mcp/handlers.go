package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/torchd/pkg/torch"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	backend := "disconnected"
	if s.svc.IsConnected() {
		backend = "connected"
	}

	caps := s.session.Capability()
	deviceStatus := "missing"
	switch {
	case caps.Usable():
		deviceStatus = "available"
	case caps.Handle.Valid():
		deviceStatus = "unavailable"
	}

	status := "healthy"
	if backend != "connected" || deviceStatus != "available" {
		status = "degraded"
	}

	out := GetHealthOutput{
		Status:    status,
		Backend:   backend,
		Device:    deviceStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetTorch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(torchOutput(s.session.Capability(), s.session.State()))), nil
}

func (s *Server) handleToggleTorch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.session.RequestToggle(ctx)
	if err != nil {
		return toolError("failed to toggle torch", err), nil
	}
	return mcp.NewToolResultText(formatJSON(torchOutput(s.session.Capability(), st))), nil
}

func (s *Server) handleTurnOn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := request.GetArguments()["intensity"]; ok {
		v, err := requiredInt(request, "intensity")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		level := torch.ClampIntensity(v, s.session.Capability().MaxStrengthLevel)
		if _, err := s.session.RequestSetIntensity(ctx, level); err != nil {
			return toolError("failed to set intensity", err), nil
		}
	}

	st, err := s.session.RequestSetEnabled(ctx, true)
	if err != nil {
		return toolError("failed to turn on torch", err), nil
	}
	return mcp.NewToolResultText(formatJSON(torchOutput(s.session.Capability(), st))), nil
}

func (s *Server) handleTurnOff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.session.RequestSetEnabled(ctx, false)
	if err != nil {
		return toolError("failed to turn off torch", err), nil
	}
	return mcp.NewToolResultText(formatJSON(torchOutput(s.session.Capability(), st))), nil
}

func (s *Server) handleSetIntensity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := requiredInt(request, "intensity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	level := torch.ClampIntensity(v, s.session.Capability().MaxStrengthLevel)
	st, err := s.session.RequestSetIntensity(ctx, level)
	if err != nil {
		return toolError("failed to set intensity", err), nil
	}
	return mcp.NewToolResultText(formatJSON(torchOutput(s.session.Capability(), st))), nil
}

func (s *Server) handleListNotifications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ns := s.session.Notifications()
	out := ListNotificationsOutput{
		Notifications: ns,
		Count:         len(ns),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleDismissNotification(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.Dismiss(id); err != nil {
		return toolError("failed to dismiss notification", err), nil
	}

	out := DismissNotificationOutput{
		Success: true,
		Message: fmt.Sprintf("Notification %q dismissed", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

// toolError turns a session error into a tool result the model can act on
func toolError(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, torch.ErrNoDeviceFound):
		return mcp.NewToolResultError(action + ": no torch found on this device")
	case errors.Is(err, torch.ErrDeviceUnavailable):
		return mcp.NewToolResultError(action + ": torch not found or unavailable")
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", action, err))
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// requiredInt reads an integral number argument. JSON numbers arrive as
// float64; values beyond int32 saturate.
func requiredInt(request mcp.CallToolRequest, key string) (int, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required parameter %q is missing", key)
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be an integer", key)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("parameter %q must be an integer", key)
	}

	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("parameter %q must be an integer", key)
	}
	return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, f))), nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

package handlers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval keeps idle SSE connections open through proxies
var heartbeatInterval = 30 * time.Second

// EventsHandler streams torch updates
type EventsHandler struct {
	session Session
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(session Session) *EventsHandler {
	return &EventsHandler{session: session}
}

// Events handles GET /torch/events (SSE stream)
// @Summary      Subscribe to torch events
// @Description  Server-Sent Events stream of state changes (local and external) and raised notifications
// @Tags         torch
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /torch/events [get]
func (h *EventsHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	updates := h.session.Watch()
	defer h.session.Unwatch(updates)

	// The first event carries the current state so clients need no extra GET
	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"state":     h.session.State(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case u, ok := <-updates:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, u.Type, u)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}

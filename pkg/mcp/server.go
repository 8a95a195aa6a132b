package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/torchd/pkg/device"
	"github.com/urmzd/torchd/pkg/torch"
)

// Session is the part of torch.Session the tools drive
type Session interface {
	Capability() torch.Capability
	State() torch.State
	RequestToggle(ctx context.Context) (torch.State, error)
	RequestSetEnabled(ctx context.Context, on bool) (torch.State, error)
	RequestSetIntensity(ctx context.Context, v int) (torch.State, error)
	Notifications() []torch.Notification
	Dismiss(id string) error
}

// Server exposes a torch session as MCP tools
type Server struct {
	mcpServer *server.MCPServer
	svc       device.Service
	session   Session
}

// NewServer creates a new MCP server around a started torch session
func NewServer(svc device.Service, session Session) *Server {
	s := &Server{
		svc:     svc,
		session: session,
	}

	s.mcpServer = server.NewMCPServer(
		"torchd",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

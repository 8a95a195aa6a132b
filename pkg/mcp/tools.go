package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check torch backend connectivity and whether a usable torch was found"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_torch",
			mcp.WithDescription("Get the torch capability (maximum strength level, availability) and its current on/off state and intensity"),
		),
		s.handleGetTorch,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_torch",
			mcp.WithDescription("Turn the torch on at the held intensity if it is off, or off if it is on"),
		),
		s.handleToggleTorch,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("turn_on",
			mcp.WithDescription("Turn the torch on. Does nothing if it is already on"),
			mcp.WithNumber("intensity",
				mcp.Description("Optional strength level to light at; clamped to [1, max_strength_level]"),
			),
		),
		s.handleTurnOn,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("turn_off",
			mcp.WithDescription("Turn the torch off. Does nothing if it is already off"),
		),
		s.handleTurnOff,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_intensity",
			mcp.WithDescription("Set the torch intensity. A lit torch changes brightness immediately; an unlit torch stays off and uses the level when next turned on"),
			mcp.WithNumber("intensity",
				mcp.Required(),
				mcp.Description("Strength level; clamped to [1, max_strength_level]"),
			),
		),
		s.handleSetIntensity,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_notifications",
			mcp.WithDescription("List raised torch notifications (device unavailable, no device found) that have not been dismissed"),
		),
		s.handleListNotifications,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("dismiss_notification",
			mcp.WithDescription("Dismiss a notification by ID"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Notification ID from list_notifications"),
			),
		),
		s.handleDismissNotification,
	)
}

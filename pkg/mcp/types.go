package mcp

import "github.com/urmzd/torchd/pkg/torch"

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=Overall health status (healthy or degraded)"`
	Backend   string `json:"backend" jsonschema:"description=Torch backend connection status"`
	Device    string `json:"device" jsonschema:"description=available, unavailable or missing"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// TorchOutput is the output for the get_torch tool and every tool that
// changes the torch
type TorchOutput struct {
	Device           string      `json:"device,omitempty" jsonschema:"description=Torch identifier"`
	MaxStrengthLevel int         `json:"max_strength_level" jsonschema:"description=Highest accepted intensity"`
	Available        bool        `json:"available" jsonschema:"description=Whether the torch can be switched right now"`
	State            torch.State `json:"state" jsonschema:"description=Current on/off flag and intensity"`
}

// ListNotificationsOutput is the output for the list_notifications tool
type ListNotificationsOutput struct {
	Notifications []torch.Notification `json:"notifications" jsonschema:"description=Active notifications, oldest first"`
	Count         int                  `json:"count" jsonschema:"description=Number of active notifications"`
}

// DismissNotificationOutput is the output for the dismiss_notification tool
type DismissNotificationOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func torchOutput(caps torch.Capability, st torch.State) TorchOutput {
	return TorchOutput{
		Device:           string(caps.Handle),
		MaxStrengthLevel: caps.MaxStrengthLevel,
		Available:        caps.Available,
		State:            st,
	}
}

// Package docs holds the Swagger document served at /swagger/*any.
// It is maintained by hand in the layout swag init emits; keep it in step
// with the annotations in pkg/api/handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Reports backend connectivity and whether a usable torch was found",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service is degraded", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "description": "Returns raised notifications that have not been dismissed, oldest first",
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.NotificationsResponse"}}
                }
            }
        },
        "/notifications/{id}": {
            "delete": {
                "tags": ["notifications"],
                "summary": "Dismiss notification",
                "parameters": [
                    {"type": "string", "description": "Notification ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Notification not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/torch": {
            "get": {
                "description": "Returns the torch capability and the current session state",
                "produces": ["application/json"],
                "tags": ["torch"],
                "summary": "Get torch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TorchResponse"}}
                }
            },
            "patch": {
                "description": "Sets the on/off flag and/or the intensity. The intensity is applied first, so turning on uses the new level.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["torch"],
                "summary": "Set torch state",
                "parameters": [
                    {"description": "Desired state", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SetTorchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TorchResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "No torch or torch unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Torch rejected the command", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/torch/events": {
            "get": {
                "description": "Server-Sent Events stream of state changes (local and external) and raised notifications",
                "produces": ["text/event-stream"],
                "tags": ["torch"],
                "summary": "Subscribe to torch events",
                "responses": {
                    "200": {"description": "SSE event stream", "schema": {"type": "string"}}
                }
            }
        },
        "/torch/intensity": {
            "put": {
                "description": "Moves the intensity slider. Values outside [1, max] are clamped. An unlit torch stays off.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["torch"],
                "summary": "Set intensity",
                "parameters": [
                    {"description": "New intensity", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SetIntensityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TorchResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Torch rejected the command", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/torch/toggle": {
            "post": {
                "description": "Turns the torch on at the held intensity, or off. A missing or busy torch raises a notification.",
                "produces": ["application/json"],
                "tags": ["torch"],
                "summary": "Toggle torch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TorchResponse"}},
                    "409": {"description": "No torch or torch unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Torch rejected the command", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Request timed out", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "torch.Notification": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "message": {"type": "string"},
                "raised_at": {"type": "string"}
            }
        },
        "torch.State": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "intensity": {"type": "integer"}
            }
        },
        "types.CapabilityResponse": {
            "type": "object",
            "properties": {
                "available": {"type": "boolean"},
                "device": {"type": "string"},
                "max_strength_level": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "backend": {"type": "string"},
                "device": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.NotificationsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "notifications": {"type": "array", "items": {"$ref": "#/definitions/torch.Notification"}}
            }
        },
        "types.SetIntensityRequest": {
            "type": "object",
            "properties": {
                "intensity": {"type": "integer", "example": 30}
            }
        },
        "types.SetTorchRequest": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "intensity": {"type": "integer"}
            }
        },
        "types.TorchResponse": {
            "type": "object",
            "properties": {
                "capability": {"$ref": "#/definitions/types.CapabilityResponse"},
                "state": {"$ref": "#/definitions/torch.State"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "torchd API",
	Description:      "REST API for switching the device torch and adjusting its brightness",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

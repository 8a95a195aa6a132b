package schema

import (
	"bytes"
	"encoding/json"
	"io"
)

// IntensityRequest is the schema of a slider update. Only the shape is
// enforced; range clamping happens after validation.
func IntensityRequest() json.RawMessage {
	return json.RawMessage(`{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"intensity": {"type": "integer"}
		},
		"required": ["intensity"],
		"additionalProperties": false
	}`)
}

// TorchState is the schema of a state-setting request: an optional on/off
// flag and an optional intensity in [1, maxLevel].
func TorchState(maxLevel int) json.RawMessage {
	doc := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"enabled": map[string]any{"type": "boolean"},
			"intensity": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": maxLevel,
			},
		},
		"minProperties":        1,
		"additionalProperties": false,
	}
	b, _ := json.Marshal(doc)
	return b
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

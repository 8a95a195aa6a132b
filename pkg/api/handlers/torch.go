package handlers

import (
	"encoding/json"
	"io"
	"math"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/torchd/pkg/api/types"
	"github.com/urmzd/torchd/pkg/device/schema"
	"github.com/urmzd/torchd/pkg/torch"
)

// maxBodyBytes bounds request bodies read for validation
const maxBodyBytes = 4 << 10

// TorchHandler handles torch state endpoints
type TorchHandler struct {
	session   Session
	validator *schema.Validator
}

// NewTorchHandler creates a new torch handler
func NewTorchHandler(session Session, validator *schema.Validator) *TorchHandler {
	return &TorchHandler{session: session, validator: validator}
}

// GetTorch handles GET /torch
// @Summary      Get torch
// @Description  Returns the torch capability and the current session state
// @Tags         torch
// @Produce      json
// @Success      200  {object}  types.TorchResponse
// @Router       /torch [get]
func (h *TorchHandler) GetTorch(c *gin.Context) {
	c.JSON(http.StatusOK, torchResponse(h.session.Capability(), h.session.State()))
}

// Toggle handles POST /torch/toggle
// @Summary      Toggle torch
// @Description  Turns the torch on at the held intensity, or off. A missing or busy torch raises a notification.
// @Tags         torch
// @Produce      json
// @Success      200  {object}  types.TorchResponse
// @Failure      409  {object}  types.ErrorResponse  "No torch or torch unavailable"
// @Failure      502  {object}  types.ErrorResponse  "Torch rejected the command"
// @Failure      504  {object}  types.ErrorResponse  "Request timed out"
// @Router       /torch/toggle [post]
func (h *TorchHandler) Toggle(c *gin.Context) {
	st, err := h.session.RequestToggle(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, torchResponse(h.session.Capability(), st))
}

// SetIntensity handles PUT /torch/intensity
// @Summary      Set intensity
// @Description  Moves the intensity slider. Values outside [1, max] are clamped. An unlit torch stays off.
// @Tags         torch
// @Accept       json
// @Produce      json
// @Param        request  body      types.SetIntensityRequest  true  "New intensity"
// @Success      200      {object}  types.TorchResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      502      {object}  types.ErrorResponse  "Torch rejected the command"
// @Router       /torch/intensity [put]
func (h *TorchHandler) SetIntensity(c *gin.Context) {
	payload, ok := h.readPayload(c, schema.IntensityRequest())
	if !ok {
		return
	}

	v, ok := intField(c, payload, "intensity")
	if !ok {
		return
	}

	level := torch.ClampIntensity(v, h.session.Capability().MaxStrengthLevel)
	st, err := h.session.RequestSetIntensity(c.Request.Context(), level)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, torchResponse(h.session.Capability(), st))
}

// SetTorch handles PATCH /torch
// @Summary      Set torch state
// @Description  Sets the on/off flag and/or the intensity. The intensity is applied first, so turning on uses the new level.
// @Tags         torch
// @Accept       json
// @Produce      json
// @Param        request  body      types.SetTorchRequest  true  "Desired state"
// @Success      200      {object}  types.TorchResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      409      {object}  types.ErrorResponse  "No torch or torch unavailable"
// @Failure      502      {object}  types.ErrorResponse  "Torch rejected the command"
// @Router       /torch [patch]
func (h *TorchHandler) SetTorch(c *gin.Context) {
	caps := h.session.Capability()
	payload, ok := h.readPayload(c, schema.TorchState(caps.MaxStrengthLevel))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	st := h.session.State()
	var err error

	if _, present := payload["intensity"]; present {
		v, ok := intField(c, payload, "intensity")
		if !ok {
			return
		}
		if st, err = h.session.RequestSetIntensity(ctx, v); err != nil {
			writeError(c, err)
			return
		}
	}

	if raw, present := payload["enabled"]; present {
		on, _ := raw.(bool)
		if st, err = h.session.RequestSetEnabled(ctx, on); err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, torchResponse(caps, st))
}

// readPayload reads the request body and validates it against schemaDoc
func (h *TorchHandler) readPayload(c *gin.Context, schemaDoc json.RawMessage) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return nil, false
	}

	payload, err := h.validator.ValidateJSON(schemaDoc, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return nil, false
	}
	return payload, true
}

func intField(c *gin.Context, payload map[string]any, key string) (int, bool) {
	n, ok := payload[key].(json.Number)
	if !ok {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: key + " must be an integer",
		})
		return 0, false
	}
	// The schema accepts any integral number, including 1.0 and 1e3;
	// big.Float saturates values beyond int64.
	f, _, err := big.ParseFloat(n.String(), 10, 128, big.ToNearestEven)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: key + " must be an integer",
		})
		return 0, false
	}
	v, _ := f.Int64()
	if v > math.MaxInt32 {
		v = math.MaxInt32
	} else if v < math.MinInt32 {
		v = math.MinInt32
	}
	return int(v), true
}

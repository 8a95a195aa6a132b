package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/torchd/pkg/api/types"
)

// NotificationsHandler handles notification endpoints
type NotificationsHandler struct {
	session Session
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(session Session) *NotificationsHandler {
	return &NotificationsHandler{session: session}
}

// List handles GET /notifications
// @Summary      List notifications
// @Description  Returns raised notifications that have not been dismissed, oldest first
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  types.NotificationsResponse
// @Router       /notifications [get]
func (h *NotificationsHandler) List(c *gin.Context) {
	ns := h.session.Notifications()
	c.JSON(http.StatusOK, types.NotificationsResponse{
		Notifications: ns,
		Count:         len(ns),
	})
}

// Dismiss handles DELETE /notifications/:id
// @Summary      Dismiss notification
// @Tags         notifications
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  types.ErrorResponse  "Notification not found"
// @Router       /notifications/{id} [delete]
func (h *NotificationsHandler) Dismiss(c *gin.Context) {
	if err := h.session.Dismiss(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"errors"
	"net/http"

	"whatsapp-relay/internal/errs"

	"github.com/gin-gonic/gin"
)

type WhatsAppHandler struct {
	Session SessionControl
	// Events upgrades the request to the live update stream.
	Events http.HandlerFunc
}

func NewWhatsAppHandler(s SessionControl, events http.HandlerFunc) *WhatsAppHandler {
	return &WhatsAppHandler{Session: s, Events: events}
}

// RestartSession drops the current transport and starts a new one. A
// transport that cannot be constructed is reported in the returned status,
// not as a request failure.
func (h *WhatsAppHandler) RestartSession(c *gin.Context) {
	err := h.Session.Restart()
	if err != nil && !errors.Is(err, errs.ErrSessionUnavailable) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": err == nil, "status": h.Session.Status()})
}

func (h *WhatsAppHandler) StreamEvents(c *gin.Context) {
	if h.Events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "live updates disabled"})
		return
	}
	h.Events(c.Writer, c.Request)
}

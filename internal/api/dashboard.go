package api

import (
	"net/http"
	"time"

	"whatsapp-relay/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionControl is implemented by *session.Manager.
type SessionControl interface {
	Status() session.Status
	Restart() error
}

type DashboardHandler struct {
	Session    SessionControl
	Dispatcher Dispatcher
	now        func() time.Time
}

func NewDashboardHandler(s SessionControl, d Dispatcher) *DashboardHandler {
	return &DashboardHandler{Session: s, Dispatcher: d, now: time.Now}
}

// GetStatus reports the session and the counters of the latest batch.
func (h *DashboardHandler) GetStatus(c *gin.Context) {
	st := h.Session.Status()
	c.JSON(http.StatusOK, gin.H{
		"isReady":           st.Ready,
		"qrCode":            st.PairingPayload,
		"stats":             h.Dispatcher.LastStats(),
		"error":             st.Error,
		"whatsappAvailable": st.Available,
		"state":             st.State,
	})
}

func (h *DashboardHandler) Health(c *gin.Context) {
	st := h.Session.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"whatsapp": gin.H{
			"available": st.Available,
			"ready":     st.Ready,
			"error":     st.Error,
		},
	})
}

package api

import (
	"encoding/csv"
	"net/http"
	"strings"
	"time"

	"whatsapp-relay/internal/models"
	"whatsapp-relay/internal/store"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	*resourceHandler[models.Contact, store.NewContact, models.ContactUpdate]
	contacts *store.ContactRepository
}

func NewContactHandler(contacts *store.ContactRepository) *ContactHandler {
	return &ContactHandler{
		resourceHandler: newResourceHandler[models.Contact, store.NewContact, models.ContactUpdate](contacts, "Contact"),
		contacts:        contacts,
	}
}

func (h *ContactHandler) register(g *gin.RouterGroup) {
	// Registered before /:id routes so "export" is never taken as an id.
	g.GET("/export", h.ExportContacts)
	h.resourceHandler.register(g)
}

func (h *ContactHandler) ExportContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Name", "Phone", "Email", "Tags", "Created At"})
	for _, contact := range contacts {
		_ = w.Write([]string{
			contact.Name,
			contact.Phone,
			contact.Email,
			strings.Join(contact.Tags, ";"),
			contact.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(err)
	}
}

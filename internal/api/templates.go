package api

import (
	"whatsapp-relay/internal/models"
	"whatsapp-relay/internal/store"
	"whatsapp-relay/internal/templating"
)

type TemplateHandler = resourceHandler[models.Template, store.NewTemplate, models.TemplateUpdate]

// NewTemplateHandler derives the variable list from the content's
// placeholders when the client does not declare one.
func NewTemplateHandler(templates *store.TemplateRepository) *TemplateHandler {
	h := newResourceHandler[models.Template, store.NewTemplate, models.TemplateUpdate](templates, "Template")
	h.prepare = func(in *store.NewTemplate) {
		if in.Variables == nil {
			in.Variables = templating.Keys(in.Content)
		}
	}
	return h
}

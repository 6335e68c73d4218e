package api

import (
	"whatsapp-relay/internal/models"
	"whatsapp-relay/internal/store"
)

type GroupHandler = resourceHandler[models.Group, store.NewGroup, models.GroupUpdate]

func NewGroupHandler(groups *store.GroupRepository) *GroupHandler {
	return newResourceHandler[models.Group, store.NewGroup, models.GroupUpdate](groups, "Group")
}

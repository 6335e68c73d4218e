package store

import (
	"context"

	"whatsapp-relay/internal/models"
)

type GroupRepository struct {
	repo
}

type NewGroup struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Contacts    []int64 `json:"contacts"`
}

func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	return list[models.Group](ctx, r.db)
}

func (r *GroupRepository) Get(ctx context.Context, id int64) (models.Group, error) {
	return get[models.Group](ctx, r.db, id)
}

// Create stores contact IDs as given; they are not checked against contacts.
func (r *GroupRepository) Create(ctx context.Context, in NewGroup) (models.Group, error) {
	id, now := r.stamp()
	g := models.Group{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Contacts:    in.Contacts,
		CreatedAt:   now,
	}
	if g.Contacts == nil {
		g.Contacts = []int64{}
	}
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (r *GroupRepository) Update(ctx context.Context, id int64, u models.GroupUpdate) (models.Group, error) {
	return update(ctx, r.db, id, u.Apply)
}

func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	return remove[models.Group](ctx, r.db, id)
}

package store

import (
	"context"

	"whatsapp-relay/internal/models"
)

type ContactRepository struct {
	repo
}

type NewContact struct {
	Name  string   `json:"name"`
	Phone string   `json:"phone"`
	Email string   `json:"email"`
	Tags  []string `json:"tags"`
}

func (r *ContactRepository) List(ctx context.Context) ([]models.Contact, error) {
	return list[models.Contact](ctx, r.db)
}

func (r *ContactRepository) Get(ctx context.Context, id int64) (models.Contact, error) {
	return get[models.Contact](ctx, r.db, id)
}

// Create does not enforce phone uniqueness.
func (r *ContactRepository) Create(ctx context.Context, in NewContact) (models.Contact, error) {
	id, now := r.stamp()
	c := models.Contact{
		ID:        id,
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Tags:      in.Tags,
		CreatedAt: now,
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

func (r *ContactRepository) Update(ctx context.Context, id int64, u models.ContactUpdate) (models.Contact, error) {
	return update(ctx, r.db, id, u.Apply)
}

func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	return remove[models.Contact](ctx, r.db, id)
}

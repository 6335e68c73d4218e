package store

import (
	"context"

	"whatsapp-relay/internal/models"
)

type TemplateRepository struct {
	repo
}

type NewTemplate struct {
	Name      string   `json:"name"`
	Content   string   `json:"content"`
	Variables []string `json:"variables"`
}

func (r *TemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	return list[models.Template](ctx, r.db)
}

func (r *TemplateRepository) Get(ctx context.Context, id int64) (models.Template, error) {
	return get[models.Template](ctx, r.db, id)
}

func (r *TemplateRepository) Create(ctx context.Context, in NewTemplate) (models.Template, error) {
	id, now := r.stamp()
	t := models.Template{
		ID:        id,
		Name:      in.Name,
		Content:   in.Content,
		Variables: in.Variables,
		CreatedAt: now,
	}
	if t.Variables == nil {
		t.Variables = []string{}
	}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.Template{}, err
	}
	return t, nil
}

func (r *TemplateRepository) Update(ctx context.Context, id int64, u models.TemplateUpdate) (models.Template, error) {
	return update(ctx, r.db, id, u.Apply)
}

func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	return remove[models.Template](ctx, r.db, id)
}

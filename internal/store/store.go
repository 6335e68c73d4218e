// Package store keeps templates, contacts and contact groups.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whatsapp-relay/internal/errs"

	"gorm.io/gorm"
)

// Store groups the three repositories over one database handle.
type Store struct {
	Templates *TemplateRepository
	Contacts  *ContactRepository
	Groups    *GroupRepository
}

func New(db *gorm.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	ids := NewIDGenerator(now)
	base := repo{db: db, ids: ids, now: now}
	return &Store{
		Templates: &TemplateRepository{repo: base},
		Contacts:  &ContactRepository{repo: base},
		Groups:    &GroupRepository{repo: base},
	}
}

type repo struct {
	db  *gorm.DB
	ids *IDGenerator
	now func() time.Time
}

func (r repo) stamp() (int64, time.Time) {
	return r.ids.Next(), r.now().UTC()
}

func list[T any](ctx context.Context, db *gorm.DB) ([]T, error) {
	items := []T{}
	if err := db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func get[T any](ctx context.Context, db *gorm.DB, id int64) (T, error) {
	var item T
	err := db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("id %d: %w", id, errs.ErrNotFound)
	}
	return item, err
}

// update loads the record, lets apply mutate it and saves it back in one
// transaction. Identifier and creation time are never touched by apply.
func update[T any](ctx context.Context, db *gorm.DB, id int64, apply func(*T)) (T, error) {
	var item T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("id %d: %w", id, errs.ErrNotFound)
			}
			return err
		}
		apply(&item)
		return tx.Save(&item).Error
	})
	return item, err
}

func remove[T any](ctx context.Context, db *gorm.DB, id int64) error {
	var item T
	res := db.WithContext(ctx).Delete(&item, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("id %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

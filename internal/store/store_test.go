package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"whatsapp-relay/internal/database"
	"whatsapp-relay/internal/errs"
	"whatsapp-relay/internal/models"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenMemory(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(db, nil)
}

func TestIDGenerator_StrictlyIncreasing(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	gen := NewIDGenerator(func() time.Time { return frozen })

	first := gen.Next()
	second := gen.Next()
	require.Equal(t, frozen.UnixMilli(), first)
	require.Equal(t, first+1, second)
}

func TestIDGenerator_Concurrent(t *testing.T) {
	gen := NewIDGenerator(nil)
	var mu sync.Mutex
	seen := map[int64]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, 50)
}

func TestContacts_CreateListDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Contacts.Create(ctx, NewContact{Name: "Sam", Phone: "123-456-7890", Tags: []string{"lead"}})
	req.NoError(err)
	req.NotZero(created.ID)
	req.False(created.CreatedAt.IsZero())

	all, err := s.Contacts.List(ctx)
	req.NoError(err)
	req.Len(all, 1)
	req.Equal(created.ID, all[0].ID)
	req.Equal([]string{"lead"}, all[0].Tags)

	req.NoError(s.Contacts.Delete(ctx, created.ID))
	all, err = s.Contacts.List(ctx)
	req.NoError(err)
	req.Empty(all)

	err = s.Contacts.Delete(ctx, created.ID)
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestContacts_DuplicatePhonesAllowed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Contacts.Create(ctx, NewContact{Name: "A", Phone: "555"})
	req.NoError(err)
	b, err := s.Contacts.Create(ctx, NewContact{Name: "B", Phone: "555"})
	req.NoError(err)
	req.NotEqual(a.ID, b.ID)
}

func TestTemplates_UpdateMergesOnlySuppliedFields(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Templates.Create(ctx, NewTemplate{Name: "Promo", Content: "Hi {{name}}", Variables: []string{"name"}})
	req.NoError(err)

	updated, err := s.Templates.Update(ctx, created.ID, models.TemplateUpdate{Content: lo.ToPtr("Hello {{name}}")})
	req.NoError(err)
	req.Equal(created.ID, updated.ID)
	req.Equal("Promo", updated.Name)
	req.Equal("Hello {{name}}", updated.Content)
	req.Equal([]string{"name"}, updated.Variables)
	req.True(created.CreatedAt.Equal(updated.CreatedAt))

	fetched, err := s.Templates.Get(ctx, created.ID)
	req.NoError(err)
	req.Equal("Hello {{name}}", fetched.Content)
}

func TestTemplates_UnknownID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Templates.Get(ctx, 42)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.Templates.Update(ctx, 42, models.TemplateUpdate{Name: lo.ToPtr("x")})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGroups_DanglingContactsTolerated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)

	g, err := s.Groups.Create(ctx, NewGroup{Name: "Ghosts", Contacts: []int64{999, 1000}})
	req.NoError(err)

	updated, err := s.Groups.Update(ctx, g.ID, models.GroupUpdate{Description: lo.ToPtr("nobody home")})
	req.NoError(err)
	req.Equal([]int64{999, 1000}, updated.Contacts)
	req.Equal("nobody home", updated.Description)
}

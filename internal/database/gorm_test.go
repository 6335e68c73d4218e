package database

import (
	"testing"
	"time"

	"whatsapp-relay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory_IsolatedHandles(t *testing.T) {
	req := require.New(t)
	first, err := OpenMemory(zerolog.Nop())
	req.NoError(err)
	second, err := OpenMemory(zerolog.Nop())
	req.NoError(err)

	req.NoError(Seed(first, time.Now()))

	var count int64
	req.NoError(first.Model(&models.Template{}).Count(&count).Error)
	req.EqualValues(2, count)
	req.NoError(second.Model(&models.Template{}).Count(&count).Error)
	req.EqualValues(0, count)
}

func TestSeed_JSONColumnsRoundTrip(t *testing.T) {
	req := require.New(t)
	db, err := OpenMemory(zerolog.Nop())
	req.NoError(err)
	req.NoError(Seed(db, time.Now()))

	var reminder models.Template
	req.NoError(db.First(&reminder, 2).Error)
	req.Equal([]string{"name", "event", "date"}, reminder.Variables)

	var vip models.Group
	req.NoError(db.First(&vip, 1).Error)
	req.Equal([]int64{1}, vip.Contacts)
}

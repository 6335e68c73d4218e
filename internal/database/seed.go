package database

import (
	"time"

	"whatsapp-relay/internal/models"

	"gorm.io/gorm"
)

// Seed inserts the starter templates, contacts and groups shown by the web UI
// on first launch. IDs are small fixed values so the groups can reference the
// contacts; generated IDs are timestamps and never collide with them.
func Seed(db *gorm.DB, now time.Time) error {
	templates := []models.Template{
		{
			ID:        1,
			Name:      "Welcome Message",
			Content:   "Hello {{name}}, welcome to our service! We're excited to have you with us.",
			Variables: []string{"name"},
			CreatedAt: now,
		},
		{
			ID:        2,
			Name:      "Reminder",
			Content:   "Hi {{name}}, this is a friendly reminder about {{event}} scheduled for {{date}}.",
			Variables: []string{"name", "event", "date"},
			CreatedAt: now,
		},
	}
	contacts := []models.Contact{
		{ID: 1, Name: "John Doe", Phone: "1234567890", Email: "john@example.com", Tags: []string{"customer", "vip"}, CreatedAt: now},
		{ID: 2, Name: "Jane Smith", Phone: "0987654321", Email: "jane@example.com", Tags: []string{"prospect"}, CreatedAt: now},
	}
	groups := []models.Group{
		{ID: 1, Name: "VIP Customers", Description: "High-value customers", Contacts: []int64{1}, CreatedAt: now},
		{ID: 2, Name: "Prospects", Description: "Potential customers", Contacts: []int64{2}, CreatedAt: now},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&templates).Error; err != nil {
			return err
		}
		if err := tx.Create(&contacts).Error; err != nil {
			return err
		}
		return tx.Create(&groups).Error
	})
}

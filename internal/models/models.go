package models

import (
	"time"
)

// Template is a reusable message body with {{key}} placeholders.
// Variables only documents the expected keys; rendering does not enforce it.
type Template struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Content   string    `gorm:"type:text" json:"content"`
	Variables []string  `gorm:"serializer:json;type:text" json:"variables"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Template) TableName() string {
	return "templates"
}

// Contact is an address book entry. Phone is kept as entered.
type Contact struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Phone     string    `gorm:"type:varchar(64)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Tags      []string  `gorm:"serializer:json;type:text" json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Group is a named list of contact IDs. Dangling IDs are allowed.
type Group struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Contacts    []int64   `gorm:"serializer:json;type:text" json:"contacts"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Group) TableName() string {
	return "contact_groups"
}

type TemplateUpdate struct {
	Name      *string   `json:"name"`
	Content   *string   `json:"content"`
	Variables *[]string `json:"variables"`
}

func (u TemplateUpdate) Apply(t *Template) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Content != nil {
		t.Content = *u.Content
	}
	if u.Variables != nil {
		t.Variables = *u.Variables
	}
}

type ContactUpdate struct {
	Name  *string   `json:"name"`
	Phone *string   `json:"phone"`
	Email *string   `json:"email"`
	Tags  *[]string `json:"tags"`
}

func (u ContactUpdate) Apply(c *Contact) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Tags != nil {
		c.Tags = *u.Tags
	}
}

type GroupUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Contacts    *[]int64 `json:"contacts"`
}

func (u GroupUpdate) Apply(g *Group) {
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.Contacts != nil {
		g.Contacts = *u.Contacts
	}
}

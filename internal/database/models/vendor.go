package models

import (
	"time"
)

// Vendor represents a supplier that can be invited to respond to RFPs.
// Email is stored lowercase and used to identify inbound replies.
type Vendor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	ContactName string    `gorm:"size:255" json:"contact_name"`
	Phone       string    `gorm:"size:50" json:"phone"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

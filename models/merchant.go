package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant represents a storefront owner in the system
type Merchant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `gorm:"uniqueIndex;not null" json:"phone"` // WhatsApp business number
	OpensAt   string         `json:"opens_at"`                          // "HH:MM", empty means always open
	ClosesAt  string         `json:"closes_at"`                         // "HH:MM", empty means always open
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Merchant model
func (Merchant) TableName() string {
	return "merchants"
}

// IsOpenAt reports whether the storefront accepts messages at the given time.
// Merchants without configured hours are always open.
func (m *Merchant) IsOpenAt(t time.Time) bool {
	if m.OpensAt == "" || m.ClosesAt == "" {
		return true
	}
	hhmm := t.Format("15:04")
	if m.OpensAt <= m.ClosesAt {
		return hhmm >= m.OpensAt && hhmm < m.ClosesAt
	}
	// Window crosses midnight
	return hhmm >= m.OpensAt || hhmm < m.ClosesAt
}

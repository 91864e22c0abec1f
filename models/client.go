package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents an end customer of a merchant, keyed by phone number.
// Clients are created lazily on first contact and filled in as the
// conversation reveals profile fields.
type Client struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MerchantID uint           `gorm:"not null;index:idx_clients_merchant_phone,unique" json:"merchant_id"`
	Merchant   Merchant       `gorm:"foreignKey:MerchantID" json:"-"`
	Phone      string         `gorm:"not null;index:idx_clients_merchant_phone,unique" json:"phone"`
	FullName   string         `json:"full_name"`
	DNI        string         `json:"dni"`
	Address    string         `json:"address"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// IsComplete reports whether the client has the profile fields required
// to confirm an order (national ID and delivery address).
func (c *Client) IsComplete() bool {
	return c.DNI != "" && c.Address != ""
}

// MissingFields lists the profile fields still needed before confirmation.
func (c *Client) MissingFields() []string {
	var missing []string
	if c.DNI == "" {
		missing = append(missing, "DNI")
	}
	if c.Address == "" {
		missing = append(missing, "dirección de entrega")
	}
	return missing
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Message directions
const (
	MessageDirectionInbound  = "inbound"
	MessageDirectionOutbound = "outbound"
)

// Message represents one message in a merchant/client conversation
type Message struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MerchantID uint           `gorm:"not null;index" json:"merchant_id"`
	Merchant   Merchant       `gorm:"foreignKey:MerchantID" json:"-"`
	ClientID   uint           `gorm:"not null;index" json:"client_id"`
	Client     Client         `gorm:"foreignKey:ClientID" json:"-"`
	Direction  string         `gorm:"not null" json:"direction"` // inbound or outbound
	Text       string         `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

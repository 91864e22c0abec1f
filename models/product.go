package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog item belonging to a merchant
type Product struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MerchantID uint           `gorm:"not null;index" json:"merchant_id"`
	Merchant   Merchant       `gorm:"foreignKey:MerchantID" json:"-"`
	Name       string         `gorm:"not null" json:"name"`
	Price      float64        `gorm:"not null" json:"price"`
	Quantity   int            `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"` // on-hand stock, never negative
	Categories string         `json:"categories"`                                             // comma-separated tags, e.g. "bebidas,gaseosas"
	ImageS3Key *string        `json:"image_s3_key"`                                           // nullable, S3 key for uploaded image
	ImageURL   *string        `gorm:"-" json:"image_url,omitempty"`                           // computed field, presigned URL for image
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// CategoryList splits the Categories field into trimmed, lower-cased tags.
func (p *Product) CategoryList() []string {
	if p.Categories == "" {
		return nil
	}
	parts := strings.Split(p.Categories, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

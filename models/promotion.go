package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Promotion discount types
const (
	DiscountTypePercent = "percent"
	DiscountTypeAmount  = "amount"
)

// Promotion represents a merchant discount with an active window and an
// applicability set expressed as explicit product IDs or category tags.
type Promotion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	MerchantID    uint           `gorm:"not null;index" json:"merchant_id"`
	Merchant      Merchant       `gorm:"foreignKey:MerchantID" json:"-"`
	Description   string         `json:"description"`
	IsActive      bool           `gorm:"not null" json:"is_active"`
	StartsAt      time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt        *time.Time     `json:"ends_at"` // nullable, open-ended when absent
	DiscountType  string         `gorm:"not null" json:"discount_type"` // percent or amount
	DiscountValue float64        `gorm:"not null" json:"discount_value"`
	ProductIDs    string         `json:"product_ids"`   // comma-separated explicit product IDs
	CategoryTags  string         `json:"category_tags"` // comma-separated category tags
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Promotion model
func (Promotion) TableName() string {
	return "promotions"
}

// IsActiveAt reports whether the promotion window covers the given time.
func (p *Promotion) IsActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt.After(now) {
		return false
	}
	if p.EndsAt != nil && !p.EndsAt.After(now) {
		return false
	}
	return true
}

// ProductIDList parses the explicit product ID set.
func (p *Promotion) ProductIDList() []uint {
	if p.ProductIDs == "" {
		return nil
	}
	parts := strings.Split(p.ProductIDs, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// CategoryTagList splits the category tags into trimmed, lower-cased labels.
func (p *Promotion) CategoryTagList() []string {
	if p.CategoryTags == "" {
		return nil
	}
	parts := strings.Split(p.CategoryTags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// AppliesTo reports whether the promotion covers the product, either by
// explicit product ID or by case-insensitive category tag match.
func (p *Promotion) AppliesTo(product *Product) bool {
	for _, id := range p.ProductIDList() {
		if id == product.ID {
			return true
		}
	}
	productTags := product.CategoryList()
	for _, tag := range p.CategoryTagList() {
		for _, productTag := range productTags {
			if tag == productTag {
				return true
			}
		}
	}
	return false
}

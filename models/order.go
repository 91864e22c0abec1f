package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Order represents a customer order in the ledger. TotalAmount is always
// derived from the order's items; it is never hand-edited.
type Order struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	MerchantID          uint           `gorm:"not null;index" json:"merchant_id"`
	Merchant            Merchant       `gorm:"foreignKey:MerchantID" json:"-"`
	ClientID            uint           `gorm:"not null;index" json:"client_id"`
	Client              Client         `gorm:"foreignKey:ClientID" json:"client"`
	SequenceNumber      uint           `gorm:"not null;index" json:"sequence_number"` // per-merchant, starts at 1
	Status              string         `gorm:"not null;default:'pending'" json:"status"` // pending, confirmed, cancelled
	TotalAmount         float64        `gorm:"not null;default:0" json:"total_amount"`
	InventoryDeducted   bool           `gorm:"not null;default:false" json:"inventory_deducted"`
	InventoryDeductedAt *time.Time     `json:"inventory_deducted_at"`
	CustomerConfirmed   bool           `gorm:"not null;default:false" json:"customer_confirmed"`
	CustomerConfirmedAt *time.Time     `json:"customer_confirmed_at"`
	CustomerName        string         `json:"customer_name"`    // snapshot at order time
	CustomerDNI         string         `json:"customer_dni"`     // snapshot at order time
	CustomerAddress     string         `json:"customer_address"` // snapshot at order time
	Items               []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsPending reports whether the order can still be edited.
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// OrderItem represents one line of an order. UnitPrice is captured at write
// time (after promotions) and not re-derived from the product's current price.
type OrderItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	Order       Order          `gorm:"foreignKey:OrderID" json:"-"`
	ProductID   uint           `gorm:"not null;index" json:"product_id"`
	Product     Product        `gorm:"foreignKey:ProductID" json:"product"`
	Quantity    int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   float64        `gorm:"not null" json:"unit_price"`
	PromotionID *uint          `json:"promotion_id"` // nullable, set when a promotion priced this line
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

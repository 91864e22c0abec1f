package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

// ErrStockRace is the residual failure: stock changed between the
// pre-check and the conditional decrement. The whole reservation was
// rolled back; the user must re-confirm.
var ErrStockRace = errors.New("stock changed during reservation")

// ErrProductVanished signals that a product row disappeared before the
// reservation decrement could apply. This is a data-integrity fault, not
// a stock race.
var ErrProductVanished = errors.New("product no longer exists")

// Shortage describes one product whose requested quantity exceeds stock.
type Shortage struct {
	Product   models.Product
	Requested int
	Available int
}

// Missing returns how many units the catalog is short.
func (s Shortage) Missing() int {
	return s.Requested - s.Available
}

// CheckAvailability compares each product's current stock against the
// required quantity and reports every shortfall. Read-only.
func CheckAvailability(db *gorm.DB, needs map[uint]int) ([]Shortage, error) {
	ids := make([]uint, 0, len(needs))
	for id := range needs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var shortages []Shortage
	for _, id := range ids {
		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			return nil, fmt.Errorf("failed to load product %d: %w", id, err)
		}
		if product.Quantity < needs[id] {
			shortages = append(shortages, Shortage{
				Product:   product,
				Requested: needs[id],
				Available: product.Quantity,
			})
		}
	}
	return shortages, nil
}

// ReserveStock atomically decrements stock for every product in needs and
// marks the order reserved and customer-confirmed. Each decrement carries
// its precondition in the update predicate (quantity >= needed); a decrement
// that affects no row means another confirmation won the race, and the whole
// transaction rolls back with ErrStockRace. No partial decrement is ever
// observable.
func ReserveStock(db *gorm.DB, order *models.Order, needs map[uint]int) error {
	ids := make([]uint, 0, len(needs))
	for id := range needs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			quantity := needs[id]
			if quantity <= 0 {
				continue
			}
			result := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", id, quantity).
				Update("quantity", gorm.Expr("quantity - ?", quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to decrement product %d: %w", id, result.Error)
			}
			if result.RowsAffected != 1 {
				// A mismatch can also mean the row is gone entirely.
				var count int64
				if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
					return fmt.Errorf("failed to re-check product %d: %w", id, err)
				}
				if count == 0 {
					return fmt.Errorf("product %d: %w", id, ErrProductVanished)
				}
				return fmt.Errorf("product %d: %w", id, ErrStockRace)
			}
		}

		updates := map[string]interface{}{
			"inventory_deducted":    true,
			"inventory_deducted_at": now,
			"customer_confirmed":    true,
			"customer_confirmed_at": now,
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to mark order reserved: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.InventoryDeducted = true
	order.InventoryDeductedAt = &now
	order.CustomerConfirmed = true
	order.CustomerConfirmedAt = &now
	return nil
}

package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

// UpsertMode controls how incoming items combine with existing order lines.
type UpsertMode string

const (
	// ModeReplace drops every existing line and recreates exactly the given items
	ModeReplace UpsertMode = "replace"
	// ModeMerge adds incoming quantities to stored quantities, per product
	ModeMerge UpsertMode = "merge"
	// ModeSet overwrites stored quantities with incoming ones, per product
	ModeSet UpsertMode = "set"
)

// ItemInput is one proposed order line, already resolved to a product.
type ItemInput struct {
	ProductID uint
	Quantity  int
}

// ErrProductNotOwned signals that a proposed product does not belong to the
// merchant. The operation aborts before any write.
var ErrProductNotOwned = errors.New("product does not belong to merchant")

// UpsertOrder applies a proposed item list to the client's pending order,
// creating one when existingOrderID is nil. Unit prices are captured fresh
// from the promotion resolver at write time, the total is recomputed from
// storage after the write, and confirmation/reservation flags are reset.
// Any edit to a pending order invalidates a prior reservation, so callers
// must RestockOrder first when stock was already deducted.
func UpsertOrder(db *gorm.DB, merchant *models.Merchant, client *models.Client, items []ItemInput, mode UpsertMode, existingOrderID *uint) (*models.Order, error) {
	var orderID uint

	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if existingOrderID != nil {
			if err := tx.Where("merchant_id = ?", merchant.ID).First(&order, *existingOrderID).Error; err != nil {
				return fmt.Errorf("failed to load order %d: %w", *existingOrderID, err)
			}
		} else {
			seq, err := nextSequenceNumber(tx, merchant.ID)
			if err != nil {
				return err
			}
			order = models.Order{
				MerchantID:      merchant.ID,
				ClientID:        client.ID,
				SequenceNumber:  seq,
				Status:          models.OrderStatusPending,
				CustomerName:    client.FullName,
				CustomerDNI:     client.DNI,
				CustomerAddress: client.Address,
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
		}
		orderID = order.ID

		promotions, err := ActivePromotions(tx, merchant.ID, time.Now())
		if err != nil {
			return err
		}

		if mode == ModeReplace {
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return fmt.Errorf("failed to clear order lines: %w", err)
			}
		}

		for _, item := range items {
			// Re-read the product inside this transaction; never trust a
			// stale catalog snapshot for pricing or ownership.
			var product models.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				return fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
			}
			if product.MerchantID != merchant.ID {
				return fmt.Errorf("product %d: %w", product.ID, ErrProductNotOwned)
			}

			unitPrice, promotionID := ResolveUnitPrice(&product, promotions)

			var existing models.OrderItem
			lineErr := tx.Where("order_id = ? AND product_id = ?", order.ID, product.ID).First(&existing).Error
			lineExists := lineErr == nil
			if lineErr != nil && !errors.Is(lineErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load order line: %w", lineErr)
			}

			finalQuantity := item.Quantity
			if mode == ModeMerge && lineExists {
				finalQuantity = existing.Quantity + item.Quantity
			}

			switch {
			case finalQuantity <= 0 && lineExists:
				if err := tx.Delete(&existing).Error; err != nil {
					return fmt.Errorf("failed to delete order line: %w", err)
				}
			case finalQuantity <= 0:
				// Nothing stored, nothing to write
			case lineExists:
				existing.Quantity = finalQuantity
				existing.UnitPrice = unitPrice
				existing.PromotionID = promotionID
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("failed to update order line: %w", err)
				}
			default:
				line := models.OrderItem{
					OrderID:     order.ID,
					ProductID:   product.ID,
					Quantity:    finalQuantity,
					UnitPrice:   unitPrice,
					PromotionID: promotionID,
				}
				if err := tx.Create(&line).Error; err != nil {
					return fmt.Errorf("failed to create order line: %w", err)
				}
			}
		}

		total, err := RecomputeTotal(tx, order.ID)
		if err != nil {
			return err
		}

		// Every upsert invalidates a prior confirmation
		updates := map[string]interface{}{
			"total_amount":          total,
			"customer_confirmed":    false,
			"customer_confirmed_at": nil,
			"inventory_deducted":    false,
			"inventory_deducted_at": nil,
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := db.Preload("Items").Preload("Items.Product").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}

// RecomputeTotal sums quantity * unitPrice over the order's current lines,
// reading them from storage rather than any in-memory snapshot.
func RecomputeTotal(tx *gorm.DB, orderID uint) (float64, error) {
	var total float64
	err := tx.Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(quantity * unit_price), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to recompute total: %w", err)
	}
	return total, nil
}

// FindPendingOrder returns the most recently created pending order for the
// merchant/client pair, or nil when there is none.
func FindPendingOrder(db *gorm.DB, merchantID, clientID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Where("merchant_id = ? AND client_id = ? AND status = ?", merchantID, clientID, models.OrderStatusPending).
		Order("created_at DESC, id DESC").
		Preload("Items").
		Preload("Items.Product").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending order: %w", err)
	}
	return &order, nil
}

// RestockOrder returns previously reserved stock to the catalog and clears
// the reservation flags. No-op when the order was never deducted.
func RestockOrder(db *gorm.DB, order *models.Order) error {
	if !order.InventoryDeducted {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		needs, err := orderProductNeeds(tx, order.ID)
		if err != nil {
			return err
		}
		for productID, quantity := range needs {
			result := tx.Model(&models.Product{}).
				Where("id = ?", productID).
				Update("quantity", gorm.Expr("quantity + ?", quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to restock product %d: %w", productID, result.Error)
			}
		}
		updates := map[string]interface{}{
			"inventory_deducted":    false,
			"inventory_deducted_at": nil,
			"customer_confirmed":    false,
			"customer_confirmed_at": nil,
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to clear reservation flags: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.InventoryDeducted = false
	order.InventoryDeductedAt = nil
	order.CustomerConfirmed = false
	order.CustomerConfirmedAt = nil
	return nil
}

// CancelOrder restocks any reserved stock and marks the order cancelled.
func CancelOrder(db *gorm.DB, order *models.Order) error {
	if err := RestockOrder(db, order); err != nil {
		return err
	}
	if err := db.Model(order).Update("status", models.OrderStatusCancelled).Error; err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	order.Status = models.OrderStatusCancelled
	return nil
}

// RefreshCustomerSnapshot copies the client's current profile onto the
// order's snapshot columns. Orders are often created before the client has
// shared DNI and address, so confirmation refreshes the snapshot.
func RefreshCustomerSnapshot(db *gorm.DB, order *models.Order, client *models.Client) error {
	updates := map[string]interface{}{
		"customer_name":    client.FullName,
		"customer_dni":     client.DNI,
		"customer_address": client.Address,
	}
	if err := db.Model(order).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to refresh customer snapshot: %w", err)
	}
	order.CustomerName = client.FullName
	order.CustomerDNI = client.DNI
	order.CustomerAddress = client.Address
	return nil
}

// orderProductNeeds groups the order's line quantities per product.
func orderProductNeeds(tx *gorm.DB, orderID uint) (map[uint]int, error) {
	var lines []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	needs := make(map[uint]int, len(lines))
	for _, line := range lines {
		needs[line.ProductID] += line.Quantity
	}
	return needs, nil
}

// nextSequenceNumber assigns the next per-merchant order number, starting at 1.
func nextSequenceNumber(tx *gorm.DB, merchantID uint) (uint, error) {
	var max uint
	err := tx.Model(&models.Order{}).
		Where("merchant_id = ?", merchantID).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute sequence number: %w", err)
	}
	return max + 1, nil
}

package services

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

// ActivePromotions loads the merchant's promotions whose window covers now.
// The time-window evaluation lives here, on the loading side; ResolveUnitPrice
// assumes its candidate set is already active.
func ActivePromotions(db *gorm.DB, merchantID uint, now time.Time) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := db.
		Where("merchant_id = ? AND is_active = ?", merchantID, true).
		Where("starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at > ?", now).
		Find(&promotions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active promotions: %w", err)
	}
	return promotions, nil
}

// ResolveUnitPrice computes the effective unit price for a product given the
// currently-active promotions. At most one promotion applies per line: the
// one yielding the largest capped discount. The discount never exceeds the
// base price, so the result is never negative.
func ResolveUnitPrice(product *models.Product, promotions []models.Promotion) (float64, *uint) {
	bestDiscount := 0.0
	var bestID *uint

	for i := range promotions {
		promo := &promotions[i]
		if !promo.AppliesTo(product) {
			continue
		}

		var discount float64
		switch promo.DiscountType {
		case models.DiscountTypePercent:
			discount = math.Round(product.Price * promo.DiscountValue / 100)
		case models.DiscountTypeAmount:
			discount = promo.DiscountValue
		default:
			continue
		}

		// Cap to [0, basePrice]
		if discount < 0 {
			discount = 0
		}
		if discount > product.Price {
			discount = product.Price
		}

		if discount > bestDiscount {
			bestDiscount = discount
			id := promo.ID
			bestID = &id
		}
	}

	if bestID == nil {
		return product.Price, nil
	}
	return product.Price - bestDiscount, bestID
}

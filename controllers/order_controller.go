package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiendabot/tiendabot-api/config"
	"github.com/tiendabot/tiendabot-api/models"
)

// ListOrders handles GET /api/v1/merchants/:id/orders - lists a merchant's
// orders, newest first, optionally filtered by status
func ListOrders(c *gin.Context) {
	db := config.GetDB()

	query := db.Where("merchant_id = ?", c.Param("id"))
	if status := c.Query("status"); status != "" {
		if status != models.OrderStatusPending && status != models.OrderStatusConfirmed && status != models.OrderStatusCancelled {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "status must be pending, confirmed or cancelled",
				},
			})
			return
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	err := query.
		Preload("Client").
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - returns one order with its lines
func GetOrder(c *gin.Context) {
	db := config.GetDB()

	var order models.Order
	err := db.
		Preload("Client").
		Preload("Items").
		Preload("Items.Product").
		First(&order, c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiendabot/tiendabot-api/config"
	"github.com/tiendabot/tiendabot-api/models"
	"github.com/tiendabot/tiendabot-api/services"
)

// IncomingMessageRequest represents the payload the messaging transport
// delivers for each inbound customer message
type IncomingMessageRequest struct {
	MerchantPhone string `json:"merchant_phone" binding:"required"`
	ClientPhone   string `json:"client_phone" binding:"required"`
	Text          string `json:"text" binding:"required"`
}

// ReceiveMessage handles POST /api/v1/webhook/messages - runs one inbound
// customer message through the order engine
func ReceiveMessage(c *gin.Context) {
	var req IncomingMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()

	var merchant models.Merchant
	if err := db.Where("phone = ?", req.MerchantPhone).First(&merchant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MERCHANT_NOT_FOUND",
				"message": "No merchant is registered for that phone number",
			},
		})
		return
	}

	// Clients are created lazily on first contact
	var client models.Client
	err := db.Where("merchant_id = ? AND phone = ?", merchant.ID, req.ClientPhone).First(&client).Error
	if err != nil {
		client = models.Client{MerchantID: merchant.ID, Phone: req.ClientPhone}
		if err := db.Create(&client).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to create client",
				},
			})
			return
		}
	}

	reply, err := services.HandleIncomingMessage(c.Request.Context(), db, &merchant, &client, req.Text)
	if err != nil {
		// The pipeline already sent its one fallback reply; surface the
		// failure to the transport as well
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PIPELINE_ERROR",
				"message": "Failed to process message",
			},
			"data": gin.H{
				"reply": reply,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"reply": reply,
		},
	})
}

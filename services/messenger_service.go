package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

// MessengerInterface hands reply strings to the transport collaborator.
// The engine never performs network I/O itself.
type MessengerInterface interface {
	SendText(merchant *models.Merchant, client *models.Client, text string) error
}

var messengerServiceInstance MessengerInterface

// GetMessengerService returns the configured messenger service instance
func GetMessengerService() MessengerInterface {
	return messengerServiceInstance
}

// SetMessengerService sets the messenger service instance (primarily for testing)
func SetMessengerService(service MessengerInterface) {
	messengerServiceInstance = service
}

// RecordMessage persists one message of the merchant/client conversation.
func RecordMessage(db *gorm.DB, merchantID, clientID uint, direction, text string) error {
	message := models.Message{
		MerchantID: merchantID,
		ClientID:   clientID,
		Direction:  direction,
		Text:       text,
	}
	if err := db.Create(&message).Error; err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}

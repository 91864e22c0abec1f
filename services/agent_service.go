package services

import (
	"context"

	"github.com/tiendabot/tiendabot-api/models"
)

// AgentInterface is the language-understanding collaborator. The engine only
// consumes its normalized output; prompt construction, model selection and
// response parsing live behind this boundary.
type AgentInterface interface {
	ProposeAction(ctx context.Context, rawText string, catalog []models.Product, pendingOrder *models.Order) (*AgentAction, error)
}

var agentServiceInstance AgentInterface

// GetAgentService returns the configured agent service instance
func GetAgentService() AgentInterface {
	return agentServiceInstance
}

// SetAgentService sets the agent service instance (primarily for testing)
func SetAgentService(service AgentInterface) {
	agentServiceInstance = service
}

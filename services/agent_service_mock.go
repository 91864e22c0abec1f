package services

import (
	"context"
	"sync"

	"github.com/tiendabot/tiendabot-api/models"
)

// MockAgentService is a scripted AgentInterface for testing. Each call pops
// the next queued action; when the script is empty it proposes a general
// action with no items.
type MockAgentService struct {
	queued   []*AgentAction
	err      error
	rawTexts []string
	mu       sync.Mutex
}

// NewMockAgentService creates a new mock agent service
func NewMockAgentService() *MockAgentService {
	return &MockAgentService{}
}

// SetAsMockForTesting sets this mock as the global agent service instance
func (m *MockAgentService) SetAsMockForTesting() {
	SetAgentService(m)
}

// QueueAction appends an action to the script
func (m *MockAgentService) QueueAction(action *AgentAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, action)
}

// FailWith makes every subsequent call return err
func (m *MockAgentService) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ProposeAction pops the next scripted action
func (m *MockAgentService) ProposeAction(ctx context.Context, rawText string, catalog []models.Product, pendingOrder *models.Order) (*AgentAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rawTexts = append(m.rawTexts, rawText)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queued) == 0 {
		return &AgentAction{Type: ActionGeneral}, nil
	}
	action := m.queued[0]
	m.queued = m.queued[1:]
	return action, nil
}

// ReceivedTexts returns every raw text the mock was asked about
func (m *MockAgentService) ReceivedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, len(m.rawTexts))
	copy(texts, m.rawTexts)
	return texts
}

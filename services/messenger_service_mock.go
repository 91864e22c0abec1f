package services

import (
	"sync"

	"github.com/tiendabot/tiendabot-api/models"
)

// MockMessengerService captures outbound texts for testing assertions.
type MockMessengerService struct {
	sent []string
	err  error
	mu   sync.Mutex
}

// NewMockMessengerService creates a new mock messenger service
func NewMockMessengerService() *MockMessengerService {
	return &MockMessengerService{}
}

// SetAsMockForTesting sets this mock as the global messenger service instance
func (m *MockMessengerService) SetAsMockForTesting() {
	SetMessengerService(m)
}

// FailWith makes every subsequent send return err
func (m *MockMessengerService) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SendText records the outbound text
func (m *MockMessengerService) SendText(merchant *models.Merchant, client *models.Client, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, text)
	return nil
}

// SentTexts returns every text handed to the mock
func (m *MockMessengerService) SentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, len(m.sent))
	copy(texts, m.sent)
	return texts
}

// LastText returns the most recent outbound text, or "" when none was sent
func (m *MockMessengerService) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

// Clear drops all captured texts
func (m *MockMessengerService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

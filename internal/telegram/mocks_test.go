package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"

	"rollcall/backend/internal/models"
)

// MockGroupSettings is a testify mock of GroupSettings.
type MockGroupSettings struct {
	mock.Mock
}

func (m *MockGroupSettings) GetGroup(groupID string) (*models.Group, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockGroupSettings) IsGroupAdmin(groupID, userID string) (bool, error) {
	args := m.Called(groupID, userID)
	return args.Bool(0), args.Error(1)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

type captureIngestor struct {
	events []models.MessageEvent
}

func (c *captureIngestor) Ingest(_ context.Context, ev models.MessageEvent) error {
	c.events = append(c.events, ev)
	return nil
}

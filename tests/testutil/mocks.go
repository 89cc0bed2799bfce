package testutil

import (
	"context"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// PublishedTypes returns the event types passed to Publish, in call order
func (m *MockEventPublisher) PublishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

// MockLogoSigner is a mock presigner for dealer logos
type MockLogoSigner struct {
	mock.Mock
}

func (m *MockLogoSigner) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockShareTokens is a mock share token signer
type MockShareTokens struct {
	mock.Mock
}

func (m *MockShareTokens) Issue(tenantID, documentID uuid.UUID) (string, error) {
	args := m.Called(tenantID, documentID)
	return args.String(0), args.Error(1)
}

func (m *MockShareTokens) Parse(token string) (uuid.UUID, uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Get(1).(uuid.UUID), args.Error(2)
}

package notify

import (
	"context"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of contract.NotificationService.
type MockService struct {
	mock.Mock
}

var _ contract.NotificationService = &MockService{} // Compile-time check

// Deliver mocks the Deliver method.
func (m *MockService) Deliver(ctx context.Context, n schema.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

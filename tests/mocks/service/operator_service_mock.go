package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
)

// MockOperatorService is a mock implementation of the operatorPort.Service interface
type MockOperatorService struct {
	mock.Mock
}

func (m *MockOperatorService) CreateOperator(ctx context.Context, username, password, role string) (*domain.Operator, error) {
	args := m.Called(ctx, username, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

func (m *MockOperatorService) Authenticate(ctx context.Context, username, password string) (*domain.Operator, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

func (m *MockOperatorService) EnsureSeedAdmin(ctx context.Context, username, password string) (bool, error) {
	args := m.Called(ctx, username, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorService) StoreSession(ctx context.Context, session domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockOperatorService) InvalidateSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

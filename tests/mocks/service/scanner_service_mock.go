package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
)

// MockScannerService is a mock implementation of the scannerPort.Service interface
type MockScannerService struct {
	mock.Mock
}

func (m *MockScannerService) RegisterScanner(ctx context.Context, reg domain.Registration) (*domain.Scanner, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

func (m *MockScannerService) Heartbeat(ctx context.Context, id string, apiKey string) (*domain.Scanner, error) {
	args := m.Called(ctx, id, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

func (m *MockScannerService) RecordOutcome(ctx context.Context, id string, completionTimeMs int64, success bool) (*domain.Scanner, error) {
	args := m.Called(ctx, id, completionTimeMs, success)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

func (m *MockScannerService) FleetMetrics(ctx context.Context) (*domain.FleetMetrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FleetMetrics), args.Error(1)
}

func (m *MockScannerService) RankScanners(ctx context.Context) (*domain.Ranking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ranking), args.Error(1)
}

func (m *MockScannerService) GetScanner(ctx context.Context, id string) (*domain.Scanner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

func (m *MockScannerService) ListScanners(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Scanner), args.Error(1)
}

func (m *MockScannerService) Blacklist(ctx context.Context, id string, until *time.Time) (*domain.Scanner, error) {
	args := m.Called(ctx, id, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

func (m *MockScannerService) LiftBlacklist(ctx context.Context, id string) (*domain.Scanner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

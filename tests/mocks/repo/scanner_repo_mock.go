package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
)

// MockScannerRepo is a mock implementation of the scannerPort.Repo interface
type MockScannerRepo struct {
	mock.Mock
}

func (m *MockScannerRepo) Create(ctx context.Context, scanner domain.Scanner) error {
	args := m.Called(ctx, scanner)
	return args.Error(0)
}

func (m *MockScannerRepo) GetByID(ctx context.Context, id domain.ScannerID) (*domain.Scanner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

func (m *MockScannerRepo) GetByEmail(ctx context.Context, email string) (*domain.Scanner, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scanner), args.Error(1)
}

// Mutate applies fn to a copy of the record the expectation returns, the way
// a real adapter would apply it to the locked row.
func (m *MockScannerRepo) Mutate(ctx context.Context, id domain.ScannerID, fn scannerPort.MutateFunc) (*domain.Scanner, error) {
	args := m.Called(ctx, id, fn)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	working := *args.Get(0).(*domain.Scanner)
	if err := fn(&working); err != nil {
		return nil, err
	}
	return &working, nil
}

func (m *MockScannerRepo) List(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Scanner), args.Error(1)
}

func (m *MockScannerRepo) Aggregate(ctx context.Context) (domain.FleetAggregate, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.FleetAggregate), args.Error(1)
}

func (m *MockScannerRepo) MarkSilentOffline(ctx context.Context, cutoff, now time.Time) (int64, error) {
	args := m.Called(ctx, cutoff, now)
	return args.Get(0).(int64), args.Error(1)
}

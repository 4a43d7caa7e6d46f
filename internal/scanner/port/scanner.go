package port

import (
	"context"
	"time"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
)

// MutateFunc edits a locked copy of the record. Returning an error discards the edit.
type MutateFunc func(s *domain.Scanner) error

type Repo interface {
	// Create inserts a new record. It returns domain.ErrDuplicateRecord when the
	// contact email or api key collides with an existing row.
	Create(ctx context.Context, scanner domain.Scanner) error
	// GetByID returns domain.ErrRecordNotFound when no row matches.
	GetByID(ctx context.Context, id domain.ScannerID) (*domain.Scanner, error)
	// GetByEmail returns nil, nil when no row matches.
	GetByEmail(ctx context.Context, email string) (*domain.Scanner, error)
	// Mutate is the only read-modify-write path for a single record.
	Mutate(ctx context.Context, id domain.ScannerID, fn MutateFunc) (*domain.Scanner, error)
	List(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error)
	Aggregate(ctx context.Context) (domain.FleetAggregate, error)
	// MarkSilentOffline flips online records whose heartbeat is missing or
	// older than cutoff to offline and returns how many rows changed.
	MarkSilentOffline(ctx context.Context, cutoff, now time.Time) (int64, error)
}

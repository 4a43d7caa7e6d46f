package port

import (
	"context"
	"time"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
)

type Service interface {
	RegisterScanner(ctx context.Context, reg domain.Registration) (*domain.Scanner, error)
	Heartbeat(ctx context.Context, id string, apiKey string) (*domain.Scanner, error)
	RecordOutcome(ctx context.Context, id string, completionTimeMs int64, success bool) (*domain.Scanner, error)
	FleetMetrics(ctx context.Context) (*domain.FleetMetrics, error)
	RankScanners(ctx context.Context) (*domain.Ranking, error)
	GetScanner(ctx context.Context, id string) (*domain.Scanner, error)
	ListScanners(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error)
	Blacklist(ctx context.Context, id string, until *time.Time) (*domain.Scanner, error)
	LiftBlacklist(ctx context.Context, id string) (*domain.Scanner, error)
}

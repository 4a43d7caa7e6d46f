package liveness

import (
	"context"
	"errors"
	"fmt"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

var ErrSweepFailed = errors.New("liveness sweep failed")

// Sweeper moves online scanners that stopped sending heartbeats to offline.
// Pending and degraded scanners and the blacklist flag are left alone.
type Sweeper struct {
	repo  scannerPort.Repo
	clock timeutils.Clock
}

func NewSweeper(repo scannerPort.Repo, clock timeutils.Clock) *Sweeper {
	if clock == nil {
		clock = timeutils.SystemClock()
	}
	return &Sweeper{repo: repo, clock: clock}
}

// Sweep returns the number of scanners it marked offline.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	cutoff := now.Add(-domain.AliveWindow)

	n, err := s.repo.MarkSilentOffline(ctx, cutoff, now)
	if err != nil {
		logger.ErrorContext(ctx, "liveness sweep failed", "error", err.Error())
		return 0, fmt.Errorf("%w: %w", ErrSweepFailed, err)
	}

	if n > 0 {
		logger.InfoContextWithFields(ctx, "silent scanners marked offline", map[string]interface{}{
			"count":  n,
			"cutoff": cutoff,
		})
	}
	return n, nil
}

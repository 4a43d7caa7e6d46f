package liveness

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	appCtx "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
)

const DefaultSchedule = "@every 1m"

// Runner triggers Sweep on a cron schedule. Overlapping runs are skipped.
type Runner struct {
	sweeper  *Sweeper
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

func NewRunner(sweeper *Sweeper, schedule string) (*Runner, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	r := &Runner{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     c,
	}
	if _, err := c.AddFunc(schedule, r.runOnce); err != nil {
		return nil, fmt.Errorf("invalid liveness schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		logger.Warn("liveness runner already running")
		return
	}

	r.running = true
	logger.Info("starting liveness runner with schedule %s", r.schedule)
	r.cron.Start()
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}

	<-r.cron.Stop().Done()
	r.running = false
	logger.Info("liveness runner stopped")
}

func (r *Runner) runOnce() {
	ctx := appCtx.NewAppContextWithTracing(context.Background(), uuid.New().String())
	n, err := r.sweeper.Sweep(ctx)
	if err != nil {
		// Sweep logged the failure; the next tick retries
		return
	}
	logger.DebugContext(ctx, "liveness sweep finished", "marked_offline", n)
}

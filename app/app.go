package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/liveness"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator"
	operatorPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner"
	scannerDomain "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/memory"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/cache"
	appCtx "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/database"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

type Option func(*app)

// WithClock replaces the wall clock used by every service. Tests use a ManualClock.
func WithClock(clock timeutils.Clock) Option {
	return func(a *app) {
		if clock != nil {
			a.clock = clock
		}
	}
}

type app struct {
	db              *gorm.DB
	cfg             config.Config
	clock           timeutils.Clock
	scannerRepo     scannerPort.Repo
	operatorRepo    operatorPort.Repo
	metricsCache    *cache.TTL[scannerDomain.FleetMetrics]
	scannerService  scannerPort.Service
	operatorService operatorPort.Service
	sweeper         *liveness.Sweeper
	livenessRunner  *liveness.Runner
}

func (a *app) DB() *gorm.DB {
	return a.db
}

func (a *app) Config() config.Config {
	return a.cfg
}

func (a *app) Clock() timeutils.Clock {
	return a.clock
}

func (a *app) Sweeper() *liveness.Sweeper {
	return a.sweeper
}

func (a *app) scannerServiceWithRepo(repo scannerPort.Repo) scannerPort.Service {
	return scanner.NewScannerService(repo,
		scanner.WithClock(a.clock),
		scanner.WithMetricsCache(a.metricsCache),
	)
}

// ScannerService returns the shared service, or one bound to the request
// transaction when ctx carries one.
func (a *app) ScannerService(ctx context.Context) scannerPort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil || a.db == nil {
		return a.scannerService
	}

	return a.scannerServiceWithRepo(storage.NewScannerRepo(db))
}

func (a *app) OperatorService(ctx context.Context) operatorPort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil || a.db == nil {
		return a.operatorService
	}

	return operator.NewOperatorService(storage.NewOperatorRepo(db), a.clock)
}

func (a *app) setStorage() error {
	if a.cfg.DB.Driver == database.DriverMemory {
		logger.Warn("memory storage selected, scanner state is lost on restart")
		a.scannerRepo = memory.NewScannerRepo()
		a.operatorRepo = memory.NewOperatorRepo()
		return nil
	}

	db, err := database.NewConnection(a.cfg.DB)
	if err != nil {
		return err
	}
	if err := database.GormMigrations(db); err != nil {
		return fmt.Errorf("migrate %s database: %w", a.cfg.DB.Driver, err)
	}
	a.db = db
	a.scannerRepo = storage.NewScannerRepo(db)
	a.operatorRepo = storage.NewOperatorRepo(db)
	return nil
}

func (a *app) seedAdmin(ctx context.Context) error {
	if a.cfg.Server.AdminPassword == "" {
		logger.Info("no admin password configured, operator seeding skipped")
		return nil
	}
	_, err := a.operatorService.EnsureSeedAdmin(ctx, a.cfg.Server.AdminUsername, a.cfg.Server.AdminPassword)
	return err
}

func NewApp(cfg config.Config, opts ...Option) (AppContainer, error) {
	a := &app{
		cfg:   cfg,
		clock: timeutils.SystemClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.setStorage(); err != nil {
		return nil, err
	}

	a.metricsCache = cache.NewTTL[scannerDomain.FleetMetrics](
		time.Duration(cfg.Metrics.CacheTTLSeconds)*time.Second, a.clock)
	a.scannerService = a.scannerServiceWithRepo(a.scannerRepo)
	a.operatorService = operator.NewOperatorService(a.operatorRepo, a.clock)

	if err := a.seedAdmin(appCtx.NewAppContext(context.Background())); err != nil {
		return nil, fmt.Errorf("seed admin operator: %w", err)
	}

	a.sweeper = liveness.NewSweeper(a.scannerRepo, a.clock)
	if cfg.Liveness.Enabled {
		runner, err := liveness.NewRunner(a.sweeper, cfg.Liveness.Schedule)
		if err != nil {
			return nil, err
		}
		a.livenessRunner = runner
	}

	logger.InfoWithFields("scanner coordinator initialized", map[string]interface{}{
		"driver":            cfg.DB.Driver,
		"liveness_enabled":  cfg.Liveness.Enabled,
		"metrics_cache_ttl": cfg.Metrics.CacheTTLSeconds,
	})
	return a, nil
}

func NewMustApp(cfg config.Config, opts ...Option) AppContainer {
	a, err := NewApp(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// StartLiveness begins the periodic offline sweep when it is enabled.
func (a *app) StartLiveness() {
	if a.livenessRunner != nil {
		a.livenessRunner.Start()
	}
}

// StopLiveness halts the sweep and waits for a running pass to finish.
func (a *app) StopLiveness() {
	if a.livenessRunner != nil {
		a.livenessRunner.Stop()
	}
}

func (a *app) Close() error {
	a.StopLiveness()
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

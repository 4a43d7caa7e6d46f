package app

import (
	"context"

	"gorm.io/gorm"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/liveness"
	OperatorPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/port"
	ScannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

type AppContainer interface {
	ScannerService(ctx context.Context) ScannerPort.Service
	OperatorService(ctx context.Context) OperatorPort.Service
	Sweeper() *liveness.Sweeper
	StartLiveness()
	StopLiveness()
	Clock() timeutils.Clock
	Config() config.Config
	// DB is nil when the memory driver is selected.
	DB() *gorm.DB
	Close() error
}

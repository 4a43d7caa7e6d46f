package http

import (
	"context"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/service"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/app"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
)

// operator service transient instance handler
func operatorServiceGetter(appContainer app.AppContainer, cfg config.ServerConfig) ServiceGetter[*service.OperatorService] {
	return func(ctx context.Context) *service.OperatorService {
		return service.NewOperatorService(appContainer.OperatorService(ctx), appContainer.Clock(),
			cfg.Secret, cfg.AuthExpMinute, cfg.AuthRefreshMinute)
	}
}

// scanner service transient instance handler
func scannerServiceGetter(appContainer app.AppContainer) ServiceGetter[*service.ScannerService] {
	return func(ctx context.Context) *service.ScannerService {
		return service.NewScannerService(appContainer.ScannerService(ctx))
	}
}

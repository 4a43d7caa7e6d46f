package port

import (
	"context"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
)

type Repo interface {
	Create(ctx context.Context, operator domain.Operator) error
	// GetByUsername returns nil, nil when no operator matches.
	GetByUsername(ctx context.Context, username string) (*domain.Operator, error)
	Count(ctx context.Context) (int64, error)
	StoreSession(ctx context.Context, session domain.Session) error
	InvalidateSession(ctx context.Context, refreshToken string) error
}

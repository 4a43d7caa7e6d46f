package port

import (
	"context"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
)

type Service interface {
	CreateOperator(ctx context.Context, username, password, role string) (*domain.Operator, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Operator, error)
	EnsureSeedAdmin(ctx context.Context, username, password string) (bool, error)
	StoreSession(ctx context.Context, session domain.Session) error
	InvalidateSession(ctx context.Context, refreshToken string) error
}

package operator_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/memory"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestOperatorService_CreateAndAuthenticate(t *testing.T) {
	svc := operator.NewOperatorService(memory.NewOperatorRepo(), timeutils.NewManualClock(now))
	ctx := context.Background()

	op, err := svc.CreateOperator(ctx, " Alice ", "correct-horse", domain.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, "alice", op.Username)
	assert.NotEqual(t, "correct-horse", op.Password)
	assert.Equal(t, now, op.CreatedAt)

	got, err := svc.Authenticate(ctx, "ALICE", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, operator.ErrInvalidPassword)

	_, err = svc.Authenticate(ctx, "bob", "correct-horse")
	assert.ErrorIs(t, err, operator.ErrInvalidPassword)

	_, err = svc.CreateOperator(ctx, "alice", "another-pass", domain.RoleOperator)
	assert.ErrorIs(t, err, operator.ErrUsernameTaken)
}

func TestOperatorService_CreateValidation(t *testing.T) {
	svc := operator.NewOperatorService(memory.NewOperatorRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name, username, password, role string
	}{
		{"empty username", "  ", "long-enough", domain.RoleAdmin},
		{"short password", "bob", "short", domain.RoleAdmin},
		{"unknown role", "bob", "long-enough", "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOperator(ctx, tt.username, tt.password, tt.role)
			assert.ErrorIs(t, err, operator.ErrOperatorValidation)
		})
	}
}

func TestOperatorService_EnsureSeedAdmin(t *testing.T) {
	svc := operator.NewOperatorService(memory.NewOperatorRepo(), nil)
	ctx := context.Background()

	created, err := svc.EnsureSeedAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureSeedAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.False(t, created)

	op, err := svc.Authenticate(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, op.Role)
}

func TestOperatorService_Sessions(t *testing.T) {
	svc := operator.NewOperatorService(memory.NewOperatorRepo(), nil)
	ctx := context.Background()

	require.NoError(t, svc.StoreSession(ctx, domain.Session{
		OperatorID:   uuid.New(),
		AccessToken:  "access",
		RefreshToken: "refresh",
		IsLogin:      true,
		CreatedAt:    now,
	}))

	assert.NoError(t, svc.InvalidateSession(ctx, "refresh"))
	assert.ErrorIs(t, svc.InvalidateSession(ctx, "refresh"), operator.ErrSessionNotFound)
	assert.ErrorIs(t, svc.InvalidateSession(ctx, "unknown"), operator.ErrSessionNotFound)
}

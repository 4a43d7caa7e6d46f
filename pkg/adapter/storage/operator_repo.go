package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage/types"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage/types/mapper"
	appCtx "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
)

type operatorRepo struct {
	db *gorm.DB
}

func NewOperatorRepo(db *gorm.DB) port.Repo {
	return &operatorRepo{
		db: db,
	}
}

func (r *operatorRepo) conn(ctx context.Context) *gorm.DB {
	db := appCtx.GetDB(ctx)
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx)
}

func (r *operatorRepo) Create(ctx context.Context, operator domain.Operator) error {
	if err := r.conn(ctx).Create(mapper.OperatorDomain2Storage(operator)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

func (r *operatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	var rows []types.Operator
	if err := r.conn(ctx).Where("username = ?", username).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get operator: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapper.OperatorStorage2Domain(rows[0])
}

func (r *operatorRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.conn(ctx).Model(&types.Operator{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}

func (r *operatorRepo) StoreSession(ctx context.Context, session domain.Session) error {
	if err := r.conn(ctx).Create(mapper.SessionDomain2Storage(session)).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *operatorRepo) InvalidateSession(ctx context.Context, refreshToken string) error {
	result := r.conn(ctx).Model(&types.Session{}).
		Where("refresh_token = ? AND is_login = ?", refreshToken, true).
		Updates(map[string]interface{}{
			"is_login":      false,
			"logged_out_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("invalidate session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

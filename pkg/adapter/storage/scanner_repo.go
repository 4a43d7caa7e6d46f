package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage/types"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage/types/mapper"
	appCtx "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/query"
)

type scannerRepo struct {
	db *gorm.DB
}

func NewScannerRepo(db *gorm.DB) scannerPort.Repo {
	return &scannerRepo{
		db: db,
	}
}

// conn prefers the request transaction carried by ctx.
func (r *scannerRepo) conn(ctx context.Context) *gorm.DB {
	db := appCtx.GetDB(ctx)
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx)
}

func (r *scannerRepo) Create(ctx context.Context, scanner domain.Scanner) error {
	row := mapper.ScannerDomain2Storage(scanner)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateRecord
		}
		return fmt.Errorf("insert scanner: %w", err)
	}
	return nil
}

func (r *scannerRepo) GetByID(ctx context.Context, id domain.ScannerID) (*domain.Scanner, error) {
	var row types.CommunityScanner
	err := r.conn(ctx).Where("id = ?", id.String()).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get scanner: %w", err)
	}
	return mapper.ScannerStorage2Domain(row)
}

func (r *scannerRepo) GetByEmail(ctx context.Context, email string) (*domain.Scanner, error) {
	var rows []types.CommunityScanner
	if err := r.conn(ctx).Where("contact_email = ?", email).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get scanner by email: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapper.ScannerStorage2Domain(rows[0])
}

// Mutate locks the row with SELECT ... FOR UPDATE, lets fn edit the record and
// writes the mutable columns back in the same transaction.
func (r *scannerRepo) Mutate(ctx context.Context, id domain.ScannerID, fn scannerPort.MutateFunc) (*domain.Scanner, error) {
	var out *domain.Scanner
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var row types.CommunityScanner
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id.String()).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRecordNotFound
			}
			return fmt.Errorf("lock scanner: %w", err)
		}

		current, err := mapper.ScannerStorage2Domain(row)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}

		err = tx.Model(&types.CommunityScanner{}).
			Where("id = ?", row.ID).
			Updates(mapper.ScannerMutableColumns(*current)).Error
		if err != nil {
			return fmt.Errorf("update scanner: %w", err)
		}

		current.ID = id
		current.ContactEmail = row.ContactEmail
		current.APIKey = row.APIKey
		current.CreatedAt = row.CreatedAt
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scannerRepo) List(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error) {
	qb := query.NewGormQueryBuilder(r.conn(ctx).Model(&types.CommunityScanner{})).
		AddFilterIf(filter.Status != "", "status = ?", string(filter.Status)).
		AddFilterIf(filter.Blacklisted != nil, "is_blacklisted = ?", derefBool(filter.Blacklisted)).
		AddFilterIf(filter.HeartbeatFrom != nil, "last_heartbeat_at >= ?", derefTime(filter.HeartbeatFrom)).
		AddSort("created_at", "asc").
		AddSort("id", "asc").
		SetPagination(filter.Limit, filter.Offset)

	var rows []types.CommunityScanner
	if err := qb.Build().Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list scanners: %w", err)
	}

	out := make([]domain.Scanner, 0, len(rows))
	for _, row := range rows {
		s, err := mapper.ScannerStorage2Domain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *scannerRepo) Aggregate(ctx context.Context) (domain.FleetAggregate, error) {
	db := r.conn(ctx)

	var counts []types.StatusCountRow
	err := db.Model(&types.CommunityScanner{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return domain.FleetAggregate{}, fmt.Errorf("count scanners by status: %w", err)
	}

	var row types.FleetAggregateRow
	err = db.Model(&types.CommunityScanner{}).
		Select("AVG(success_rate) AS avg_success_rate, " +
			"SUM(total_jobs_completed) AS total_completed, " +
			"SUM(total_jobs_failed) AS total_failed, " +
			"AVG(average_completion_time_ms) AS avg_completion_time").
		Scan(&row).Error
	if err != nil {
		return domain.FleetAggregate{}, fmt.Errorf("aggregate scanners: %w", err)
	}

	return mapper.FleetAggregateStorage2Domain(counts, row), nil
}

// MarkSilentOffline is one conditional UPDATE, so a row locked by an
// in-flight heartbeat is re-checked by the database after that commit.
func (r *scannerRepo) MarkSilentOffline(ctx context.Context, cutoff, now time.Time) (int64, error) {
	result := r.conn(ctx).Model(&types.CommunityScanner{}).
		Where("status = ?", string(domain.StatusOnline)).
		Where("last_heartbeat_at IS NULL OR last_heartbeat_at <= ?", cutoff).
		Updates(map[string]interface{}{
			"status":     string(domain.StatusOffline),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("mark silent scanners offline: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

package mapper

import (
	"fmt"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage/types"
)

func ScannerDomain2Storage(s domain.Scanner) *types.CommunityScanner {
	return &types.CommunityScanner{
		ID:                      s.ID.String(),
		Name:                    s.Name,
		Description:             s.Description,
		ContactEmail:            s.ContactEmail,
		APIKey:                  s.APIKey,
		Status:                  string(s.Status),
		SuccessRate:             s.SuccessRate,
		AverageCompletionTimeMs: s.AverageCompletionTimeMs,
		TotalJobsCompleted:      s.TotalJobsCompleted,
		TotalJobsFailed:         s.TotalJobsFailed,
		CurrentActiveJobs:       s.CurrentActiveJobs,
		IsBlacklisted:           s.IsBlacklisted,
		BlacklistedUntil:        s.BlacklistedUntil,
		LastHeartbeatAt:         s.LastHeartbeatAt,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func ScannerStorage2Domain(s types.CommunityScanner) (*domain.Scanner, error) {
	id, err := domain.ScannerIDFromString(s.ID)
	if err != nil {
		return nil, fmt.Errorf("scanner row has malformed id %q: %w", s.ID, err)
	}

	return &domain.Scanner{
		ID:                      id,
		Name:                    s.Name,
		Description:             s.Description,
		ContactEmail:            s.ContactEmail,
		APIKey:                  s.APIKey,
		Status:                  domain.Status(s.Status),
		SuccessRate:             s.SuccessRate,
		AverageCompletionTimeMs: s.AverageCompletionTimeMs,
		TotalJobsCompleted:      s.TotalJobsCompleted,
		TotalJobsFailed:         s.TotalJobsFailed,
		CurrentActiveJobs:       s.CurrentActiveJobs,
		IsBlacklisted:           s.IsBlacklisted,
		BlacklistedUntil:        s.BlacklistedUntil,
		LastHeartbeatAt:         s.LastHeartbeatAt,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}, nil
}

// ScannerMutableColumns lists the columns a read-modify-write may change.
// Identity, credentials and creation time are left out.
func ScannerMutableColumns(s domain.Scanner) map[string]interface{} {
	return map[string]interface{}{
		"name":                       s.Name,
		"description":                s.Description,
		"status":                     string(s.Status),
		"success_rate":               s.SuccessRate,
		"average_completion_time_ms": s.AverageCompletionTimeMs,
		"total_jobs_completed":       s.TotalJobsCompleted,
		"total_jobs_failed":          s.TotalJobsFailed,
		"current_active_jobs":        s.CurrentActiveJobs,
		"is_blacklisted":             s.IsBlacklisted,
		"blacklisted_until":          s.BlacklistedUntil,
		"last_heartbeat_at":          s.LastHeartbeatAt,
		"updated_at":                 s.UpdatedAt,
	}
}

func FleetAggregateStorage2Domain(counts []types.StatusCountRow, row types.FleetAggregateRow) domain.FleetAggregate {
	agg := domain.FleetAggregate{StatusCounts: make(map[domain.Status]int64, len(counts))}
	for _, c := range counts {
		agg.StatusCounts[domain.Status(c.Status)] += c.Count
	}
	agg.AverageSuccessRate = floatOrZero(row.AvgSuccessRate)
	agg.TotalJobsCompleted = int64(floatOrZero(row.TotalCompleted))
	agg.TotalJobsFailed = int64(floatOrZero(row.TotalFailed))
	agg.AverageCompletionTimeMs = floatOrZero(row.AvgCompletionTime)
	return agg
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

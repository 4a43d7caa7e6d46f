package types

import (
	"time"
)

// CommunityScanner is the row of one admitted community scanner.
type CommunityScanner struct {
	ID                      string     `gorm:"column:id;size:36;primaryKey"`
	Name                    string     `gorm:"column:name;size:100;not null"`
	Description             string     `gorm:"column:description;size:500;not null"`
	ContactEmail            string     `gorm:"column:contact_email;size:255;not null;uniqueIndex:idx_community_scanners_contact_email"`
	APIKey                  string     `gorm:"column:api_key;size:255;not null;uniqueIndex:idx_community_scanners_api_key"`
	Status                  string     `gorm:"column:status;size:20;not null;index:idx_community_scanners_status"`
	SuccessRate             int        `gorm:"column:success_rate;not null"`
	AverageCompletionTimeMs int64      `gorm:"column:average_completion_time_ms;not null"`
	TotalJobsCompleted      int64      `gorm:"column:total_jobs_completed;not null"`
	TotalJobsFailed         int64      `gorm:"column:total_jobs_failed;not null"`
	CurrentActiveJobs       int        `gorm:"column:current_active_jobs;not null"`
	IsBlacklisted           bool       `gorm:"column:is_blacklisted;not null;index:idx_community_scanners_is_blacklisted"`
	BlacklistedUntil        *time.Time `gorm:"column:blacklisted_until"`
	LastHeartbeatAt         *time.Time `gorm:"column:last_heartbeat_at;index:idx_community_scanners_last_heartbeat_at"`
	CreatedAt               time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt               time.Time  `gorm:"column:updated_at;not null"`
}

func (CommunityScanner) TableName() string {
	return "community_scanners"
}

// FleetAggregateRow receives the aggregate columns. Every column is NULL on an empty table.
type FleetAggregateRow struct {
	AvgSuccessRate    *float64 `gorm:"column:avg_success_rate"`
	TotalCompleted    *float64 `gorm:"column:total_completed"`
	TotalFailed       *float64 `gorm:"column:total_failed"`
	AvgCompletionTime *float64 `gorm:"column:avg_completion_time"`
}

type StatusCountRow struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

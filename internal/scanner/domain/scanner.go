package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ScannerID = uuid.UUID

func ScannerIDFromString(s string) (ScannerID, error) {
	return uuid.Parse(s)
}

// Status is the liveness state of a community scanner. Blacklisting is a
// separate flag and not a state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
	StatusDegraded Status = "degraded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOnline, StatusOffline, StatusDegraded:
		return true
	}
	return false
}

// OnHeartbeat returns the status a scanner moves to after an accepted heartbeat.
// Heartbeats only move towards online; degraded is cleared elsewhere.
func (s Status) OnHeartbeat() Status {
	switch s {
	case StatusPending, StatusOffline:
		return StatusOnline
	default:
		return s
	}
}

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	APIKeyBytes          = 32
)

// Scanner is the persisted state of one community scanner.
type Scanner struct {
	ID                      ScannerID
	Name                    string
	Description             string
	ContactEmail            string
	APIKey                  string
	Status                  Status
	SuccessRate             int
	AverageCompletionTimeMs int64
	TotalJobsCompleted      int64
	TotalJobsFailed         int64
	CurrentActiveJobs       int
	IsBlacklisted           bool
	BlacklistedUntil        *time.Time
	LastHeartbeatAt         *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Registration carries the caller-supplied fields of a new scanner.
type Registration struct {
	Name         string
	Description  string
	ContactEmail string
}

// Normalize trims every field and lowercases the email.
func (r Registration) Normalize() Registration {
	return Registration{
		Name:         strings.TrimSpace(r.Name),
		Description:  strings.TrimSpace(r.Description),
		ContactEmail: NormalizeEmail(r.ContactEmail),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewScanner builds a pending record with zeroed counters.
func NewScanner(id ScannerID, reg Registration, apiKey string, now time.Time) Scanner {
	reg = reg.Normalize()
	return Scanner{
		ID:           id,
		Name:         reg.Name,
		Description:  reg.Description,
		ContactEmail: reg.ContactEmail,
		APIKey:       apiKey,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ComputeSuccessRate returns round(100*completed/(completed+failed)), or 0 with no jobs.
func ComputeSuccessRate(completed, failed int64) int {
	total := completed + failed
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// RecordOutcome folds one finished job into the performance counters.
// Failed jobs do not move the completion time average.
func (s Scanner) RecordOutcome(completionTimeMs int64, success bool) Scanner {
	if success {
		newTotal := s.TotalJobsCompleted + 1
		sum := float64(s.AverageCompletionTimeMs)*float64(s.TotalJobsCompleted) + float64(completionTimeMs)
		s.AverageCompletionTimeMs = int64(math.Round(sum / float64(newTotal)))
		s.TotalJobsCompleted = newTotal
	} else {
		s.TotalJobsFailed++
	}
	s.SuccessRate = ComputeSuccessRate(s.TotalJobsCompleted, s.TotalJobsFailed)
	return s
}

// Heartbeat stamps the heartbeat time and applies the status transition.
func (s Scanner) Heartbeat(now time.Time) Scanner {
	hb := now
	s.LastHeartbeatAt = &hb
	s.Status = s.Status.OnHeartbeat()
	s.UpdatedAt = now
	return s
}

// ScannerFilter narrows a listing. Zero fields do not filter; a zero Limit returns every match.
type ScannerFilter struct {
	Status        Status
	Blacklisted   *bool
	HeartbeatFrom *time.Time
	Limit         int
	Offset        int
}

type FleetMetrics struct {
	TotalScanners           int64
	ActiveScanners          int64
	OfflineScanners         int64
	DegradedScanners        int64
	PendingScanners         int64
	AverageSuccessRate      float64
	TotalJobsCompleted      int64
	TotalJobsFailed         int64
	AverageCompletionTimeMs float64
}

// FleetAggregate is the raw output of the storage aggregate query.
type FleetAggregate struct {
	StatusCounts            map[Status]int64
	AverageSuccessRate      float64
	TotalJobsCompleted      int64
	TotalJobsFailed         int64
	AverageCompletionTimeMs float64
}

func (a FleetAggregate) Metrics() FleetMetrics {
	m := FleetMetrics{
		ActiveScanners:          a.StatusCounts[StatusOnline],
		OfflineScanners:         a.StatusCounts[StatusOffline],
		DegradedScanners:        a.StatusCounts[StatusDegraded],
		PendingScanners:         a.StatusCounts[StatusPending],
		AverageSuccessRate:      finiteOrZero(a.AverageSuccessRate),
		TotalJobsCompleted:      a.TotalJobsCompleted,
		TotalJobsFailed:         a.TotalJobsFailed,
		AverageCompletionTimeMs: finiteOrZero(a.AverageCompletionTimeMs),
	}
	for _, n := range a.StatusCounts {
		m.TotalScanners += n
	}
	return m
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

type RankedScanner struct {
	Scanner Scanner
	Weight  int
}

// Ranking is the dispatch order as of EvaluatedAt, the instant every weight was computed for.
type Ranking struct {
	EvaluatedAt time.Time
	Scanners    []RankedScanner
}

var (
	ErrRecordNotFound  = errors.New("scanner record not found")
	ErrDuplicateRecord = errors.New("scanner email or api key already stored")
)

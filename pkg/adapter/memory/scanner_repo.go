package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
)

// entry owns one record. Its mutex is the unit of serialization for that record.
type entry struct {
	mu      sync.Mutex
	scanner domain.Scanner
}

func (e *entry) snapshot() domain.Scanner {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.scanner)
}

// scannerRepo keeps records in process memory. The map lock is held only to
// find or insert entries, never while a record is being mutated.
type scannerRepo struct {
	mu      sync.RWMutex
	byID    map[domain.ScannerID]*entry
	byEmail map[string]domain.ScannerID
	byKey   map[string]domain.ScannerID
}

func NewScannerRepo() scannerPort.Repo {
	return &scannerRepo{
		byID:    make(map[domain.ScannerID]*entry),
		byEmail: make(map[string]domain.ScannerID),
		byKey:   make(map[string]domain.ScannerID),
	}
}

func (r *scannerRepo) Create(ctx context.Context, scanner domain.Scanner) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[scanner.ID]; ok {
		return fmt.Errorf("scanner %s already stored", scanner.ID)
	}
	if _, ok := r.byEmail[scanner.ContactEmail]; ok {
		return domain.ErrDuplicateRecord
	}
	if _, ok := r.byKey[scanner.APIKey]; ok {
		return domain.ErrDuplicateRecord
	}

	r.byID[scanner.ID] = &entry{scanner: clone(scanner)}
	r.byEmail[scanner.ContactEmail] = scanner.ID
	r.byKey[scanner.APIKey] = scanner.ID
	return nil
}

func (r *scannerRepo) lookup(id domain.ScannerID) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

func (r *scannerRepo) GetByID(ctx context.Context, id domain.ScannerID) (*domain.Scanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := r.lookup(id)
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	s := e.snapshot()
	return &s, nil
}

func (r *scannerRepo) GetByEmail(ctx context.Context, email string) (*domain.Scanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *scannerRepo) Mutate(ctx context.Context, id domain.ScannerID, fn scannerPort.MutateFunc) (*domain.Scanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := r.lookup(id)
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := clone(e.scanner)
	if err := fn(&working); err != nil {
		return nil, err
	}
	// identity and credentials are not editable through Mutate
	working.ID = e.scanner.ID
	working.ContactEmail = e.scanner.ContactEmail
	working.APIKey = e.scanner.APIKey
	working.CreatedAt = e.scanner.CreatedAt

	e.scanner = working
	out := clone(working)
	return &out, nil
}

func (r *scannerRepo) entries() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	return out
}

func (r *scannerRepo) List(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.Scanner
	for _, e := range r.entries() {
		s := e.snapshot()
		if matches(s, filter) {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func paginate(in []domain.Scanner, limit, offset int) []domain.Scanner {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func matches(s domain.Scanner, f domain.ScannerFilter) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Blacklisted != nil && s.IsBlacklisted != *f.Blacklisted {
		return false
	}
	if f.HeartbeatFrom != nil {
		if s.LastHeartbeatAt == nil || s.LastHeartbeatAt.Before(*f.HeartbeatFrom) {
			return false
		}
	}
	return true
}

func (r *scannerRepo) Aggregate(ctx context.Context) (domain.FleetAggregate, error) {
	agg := domain.FleetAggregate{StatusCounts: make(map[domain.Status]int64)}
	if err := ctx.Err(); err != nil {
		return agg, err
	}

	var n, rateSum, timeSum float64
	for _, e := range r.entries() {
		s := e.snapshot()
		agg.StatusCounts[s.Status]++
		agg.TotalJobsCompleted += s.TotalJobsCompleted
		agg.TotalJobsFailed += s.TotalJobsFailed
		rateSum += float64(s.SuccessRate)
		timeSum += float64(s.AverageCompletionTimeMs)
		n++
	}
	if n > 0 {
		agg.AverageSuccessRate = rateSum / n
		agg.AverageCompletionTimeMs = timeSum / n
	}
	return agg, nil
}

func (r *scannerRepo) MarkSilentOffline(ctx context.Context, cutoff, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var changed int64
	for _, e := range r.entries() {
		e.mu.Lock()
		s := &e.scanner
		if s.Status == domain.StatusOnline && (s.LastHeartbeatAt == nil || !s.LastHeartbeatAt.After(cutoff)) {
			s.Status = domain.StatusOffline
			s.UpdatedAt = now
			changed++
		}
		e.mu.Unlock()
	}
	return changed, nil
}

func clone(s domain.Scanner) domain.Scanner {
	s.LastHeartbeatAt = copyTime(s.LastHeartbeatAt)
	s.BlacklistedUntil = copyTime(s.BlacklistedUntil)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

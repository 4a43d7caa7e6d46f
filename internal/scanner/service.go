package scanner

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/cache"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

var (
	ErrDuplicateScanner    = errors.New("scanner with this email already exists")
	ErrScannerNotFound     = errors.New("scanner not found")
	ErrInvalidCredential   = errors.New("invalid API key")
	ErrScannerBlacklisted  = errors.New("scanner is blacklisted")
	ErrInvalidRegistration = errors.New("invalid scanner registration")
	ErrInvalidOutcome      = errors.New("invalid job outcome")
	ErrInvalidFilter       = errors.New("invalid scanner filter")
	ErrStorage             = errors.New("scanner storage failure")
)

type Option func(*scannerService)

func WithClock(clock timeutils.Clock) Option {
	return func(s *scannerService) {
		s.clock = clock
	}
}

// WithMetricsCacheTTL keeps fleet metrics for ttl before recomputing them. Zero disables it.
func WithMetricsCacheTTL(ttl time.Duration) Option {
	return func(s *scannerService) {
		s.metricsTTL = ttl
	}
}

// WithMetricsCache shares one fleet metrics cache between service instances,
// e.g. the request-scoped ones built around a transaction.
func WithMetricsCache(c *cache.TTL[domain.FleetMetrics]) Option {
	return func(s *scannerService) {
		s.metrics = c
	}
}

type scannerService struct {
	repo       scannerPort.Repo
	clock      timeutils.Clock
	metricsTTL time.Duration
	metrics    *cache.TTL[domain.FleetMetrics]
	validate   *validator.Validate
}

func NewScannerService(repo scannerPort.Repo, opts ...Option) scannerPort.Service {
	s := &scannerService{
		repo:     repo,
		clock:    timeutils.SystemClock(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = cache.NewTTL[domain.FleetMetrics](s.metricsTTL, s.clock)
	}
	return s
}

func (s *scannerService) RegisterScanner(ctx context.Context, reg domain.Registration) (*domain.Scanner, error) {
	reg = reg.Normalize()
	if err := s.validateRegistration(reg); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, reg.ContactEmail)
	if err != nil {
		return nil, storageErr(err)
	}
	if existing != nil {
		logger.WarnContext(ctx, "duplicate scanner registration", "scanner_id", existing.ID.String())
		return nil, ErrDuplicateScanner
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	scanner := domain.NewScanner(uuid.New(), reg, apiKey, s.clock.Now())
	if err := s.repo.Create(ctx, scanner); err != nil {
		if errors.Is(err, domain.ErrDuplicateRecord) {
			return nil, ErrDuplicateScanner
		}
		return nil, storageErr(err)
	}
	s.metrics.Invalidate()

	logger.InfoContextWithFields(ctx, "community scanner registered", map[string]interface{}{
		"scanner_id": scanner.ID.String(),
		"name":       scanner.Name,
	})
	return &scanner, nil
}

func (s *scannerService) validateRegistration(reg domain.Registration) error {
	switch {
	case reg.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	case utf8.RuneCountInString(reg.Name) > domain.MaxNameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidRegistration, domain.MaxNameLength)
	case utf8.RuneCountInString(reg.Description) > domain.MaxDescriptionLength:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidRegistration, domain.MaxDescriptionLength)
	}
	if err := s.validate.Var(reg.ContactEmail, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid contact email", ErrInvalidRegistration)
	}
	return nil
}

func (s *scannerService) Heartbeat(ctx context.Context, id string, apiKey string) (*domain.Scanner, error) {
	scannerID, err := domain.ScannerIDFromString(id)
	if err != nil {
		return nil, ErrScannerNotFound
	}

	updated, err := s.repo.Mutate(ctx, scannerID, func(sc *domain.Scanner) error {
		if subtle.ConstantTimeCompare([]byte(sc.APIKey), []byte(apiKey)) != 1 {
			return ErrInvalidCredential
		}
		if sc.IsBlacklisted {
			return ErrScannerBlacklisted
		}
		*sc = sc.Heartbeat(s.clock.Now())
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) || errors.Is(err, ErrScannerBlacklisted) {
			logger.WarnContextWithFields(ctx, "heartbeat rejected", map[string]interface{}{
				"scanner_id": id,
				"reason":     err.Error(),
			})
		}
		return nil, mapRepoErr(err)
	}

	logger.FromContext(ctx).WithScannerID(id).DebugWithFields("heartbeat accepted", map[string]interface{}{
		"status": string(updated.Status),
	})
	return updated, nil
}

func (s *scannerService) RecordOutcome(ctx context.Context, id string, completionTimeMs int64, success bool) (*domain.Scanner, error) {
	if completionTimeMs < 0 {
		return nil, fmt.Errorf("%w: negative completion time", ErrInvalidOutcome)
	}
	scannerID, err := domain.ScannerIDFromString(id)
	if err != nil {
		return nil, ErrScannerNotFound
	}

	updated, err := s.repo.Mutate(ctx, scannerID, func(sc *domain.Scanner) error {
		*sc = sc.RecordOutcome(completionTimeMs, success)
		sc.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	logger.InfoContextWithFields(ctx, "job outcome recorded", map[string]interface{}{
		"scanner_id":   id,
		"success":      success,
		"success_rate": updated.SuccessRate,
	})
	return updated, nil
}

func (s *scannerService) FleetMetrics(ctx context.Context) (*domain.FleetMetrics, error) {
	if m, ok := s.metrics.Get(); ok {
		return &m, nil
	}

	gen := s.metrics.Generation()
	agg, err := s.repo.Aggregate(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	m := agg.Metrics()
	// a registration during Aggregate leaves the result uncached
	s.metrics.SetIfCurrent(m, gen)
	return &m, nil
}

// RankScanners returns every dispatchable scanner, heaviest first. Ties are
// broken by id so the order is stable between calls.
func (s *scannerService) RankScanners(ctx context.Context) (*domain.Ranking, error) {
	now := s.clock.Now()
	since := now.Add(-domain.AliveWindow)
	notBlacklisted := false

	scanners, err := s.repo.List(ctx, domain.ScannerFilter{
		Blacklisted:   &notBlacklisted,
		HeartbeatFrom: &since,
	})
	if err != nil {
		return nil, storageErr(err)
	}

	ranked := make([]domain.RankedScanner, 0, len(scanners))
	for _, sc := range scanners {
		w := sc.Weight(now)
		if w <= 0 {
			continue
		}
		ranked = append(ranked, domain.RankedScanner{Scanner: sc, Weight: w})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Scanner.ID.String() < ranked[j].Scanner.ID.String()
	})
	return &domain.Ranking{EvaluatedAt: now, Scanners: ranked}, nil
}

func (s *scannerService) GetScanner(ctx context.Context, id string) (*domain.Scanner, error) {
	scannerID, err := domain.ScannerIDFromString(id)
	if err != nil {
		return nil, ErrScannerNotFound
	}

	sc, err := s.repo.GetByID(ctx, scannerID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return sc, nil
}

func (s *scannerService) ListScanners(ctx context.Context, filter domain.ScannerFilter) ([]domain.Scanner, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: negative pagination", ErrInvalidFilter)
	}

	scanners, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageErr(err)
	}
	return scanners, nil
}

func (s *scannerService) Blacklist(ctx context.Context, id string, until *time.Time) (*domain.Scanner, error) {
	return s.setBlacklist(ctx, id, true, until)
}

func (s *scannerService) LiftBlacklist(ctx context.Context, id string) (*domain.Scanner, error) {
	return s.setBlacklist(ctx, id, false, nil)
}

func (s *scannerService) setBlacklist(ctx context.Context, id string, blacklisted bool, until *time.Time) (*domain.Scanner, error) {
	scannerID, err := domain.ScannerIDFromString(id)
	if err != nil {
		return nil, ErrScannerNotFound
	}

	updated, err := s.repo.Mutate(ctx, scannerID, func(sc *domain.Scanner) error {
		sc.IsBlacklisted = blacklisted
		sc.BlacklistedUntil = nil
		if blacklisted && until != nil {
			u := until.UTC()
			sc.BlacklistedUntil = &u
		}
		sc.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	logger.InfoContextWithFields(ctx, "scanner blacklist changed", map[string]interface{}{
		"scanner_id":  id,
		"blacklisted": blacklisted,
	})
	return updated, nil
}

func generateAPIKey() (string, error) {
	buf := make([]byte, domain.APIKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return ErrScannerNotFound
	case errors.Is(err, ErrInvalidCredential),
		errors.Is(err, ErrScannerBlacklisted),
		errors.Is(err, ErrInvalidOutcome):
		return err
	default:
		return storageErr(err)
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	scannerPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/port"
)

var (
	ErrDuplicateScanner    = scanner.ErrDuplicateScanner
	ErrScannerNotFound     = scanner.ErrScannerNotFound
	ErrInvalidCredential   = scanner.ErrInvalidCredential
	ErrScannerBlacklisted  = scanner.ErrScannerBlacklisted
	ErrInvalidRegistration = scanner.ErrInvalidRegistration
	ErrInvalidOutcome      = scanner.ErrInvalidOutcome
	ErrInvalidFilter       = scanner.ErrInvalidFilter

	ErrInvalidBlacklistUntil = errors.New("blacklist until must be an RFC3339 timestamp")
)

type ScannerService struct {
	service scannerPort.Service
}

func NewScannerService(srv scannerPort.Service) *ScannerService {
	return &ScannerService{
		service: srv,
	}
}

func (s *ScannerService) RegisterScanner(ctx context.Context, req *pb.RegisterScannerRequest) (*pb.RegisterScannerResponse, error) {
	sc, err := s.service.RegisterScanner(ctx, domain.Registration{
		Name:         req.GetName(),
		Description:  req.GetDescription(),
		ContactEmail: req.GetContactEmail(),
	})
	if err != nil {
		return nil, err
	}
	return &pb.RegisterScannerResponse{
		Id:           sc.ID.String(),
		Name:         sc.Name,
		Description:  sc.Description,
		ContactEmail: sc.ContactEmail,
		ApiKey:       sc.APIKey,
		Status:       string(sc.Status),
		CreatedAt:    formatTime(sc.CreatedAt),
	}, nil
}

func (s *ScannerService) Heartbeat(ctx context.Context, req *pb.HeartbeatRequest) (*pb.HeartbeatResponse, error) {
	sc, err := s.service.Heartbeat(ctx, req.GetId(), req.GetApiKey())
	if err != nil {
		return nil, err
	}
	return &pb.HeartbeatResponse{
		Id:              sc.ID.String(),
		LastHeartbeatAt: formatTimePtr(sc.LastHeartbeatAt),
		Status:          string(sc.Status),
	}, nil
}

func (s *ScannerService) FleetMetrics(ctx context.Context) (*pb.FleetMetricsResponse, error) {
	m, err := s.service.FleetMetrics(ctx)
	if err != nil {
		return nil, err
	}
	return &pb.FleetMetricsResponse{
		TotalScanners:           m.TotalScanners,
		ActiveScanners:          m.ActiveScanners,
		OfflineScanners:         m.OfflineScanners,
		DegradedScanners:        m.DegradedScanners,
		PendingScanners:         m.PendingScanners,
		AverageSuccessRate:      m.AverageSuccessRate,
		TotalJobsCompleted:      m.TotalJobsCompleted,
		TotalJobsFailed:         m.TotalJobsFailed,
		AverageCompletionTimeMs: m.AverageCompletionTimeMs,
	}, nil
}

func (s *ScannerService) RankScanners(ctx context.Context) (*pb.RankScannersResponse, error) {
	ranking, err := s.service.RankScanners(ctx)
	if err != nil {
		return nil, err
	}
	resp := &pb.RankScannersResponse{
		EvaluatedAt: formatTime(ranking.EvaluatedAt),
		Scanners:    make([]*pb.RankedScanner, 0, len(ranking.Scanners)),
	}
	for _, r := range ranking.Scanners {
		resp.Scanners = append(resp.Scanners, &pb.RankedScanner{
			Scanner: scannerToPB(r.Scanner),
			Weight:  r.Weight,
		})
	}
	return resp, nil
}

func (s *ScannerService) GetScanner(ctx context.Context, req *pb.GetScannerRequest) (*pb.Scanner, error) {
	sc, err := s.service.GetScanner(ctx, req.GetId())
	if err != nil {
		return nil, err
	}
	return scannerToPB(*sc), nil
}

func (s *ScannerService) ListScanners(ctx context.Context, req *pb.ListScannersRequest) (*pb.ListScannersResponse, error) {
	scanners, err := s.service.ListScanners(ctx, domain.ScannerFilter{
		Status:      domain.Status(req.GetStatus()),
		Blacklisted: req.GetBlacklisted(),
		Limit:       req.GetLimit(),
		Offset:      req.GetOffset(),
	})
	if err != nil {
		return nil, err
	}
	resp := &pb.ListScannersResponse{
		Count:    len(scanners),
		Scanners: make([]*pb.Scanner, 0, len(scanners)),
	}
	for _, sc := range scanners {
		resp.Scanners = append(resp.Scanners, scannerToPB(sc))
	}
	return resp, nil
}

func (s *ScannerService) RecordOutcome(ctx context.Context, req *pb.RecordOutcomeRequest) (*pb.Scanner, error) {
	sc, err := s.service.RecordOutcome(ctx, req.GetId(), req.GetCompletionTimeMs(), req.GetSuccess())
	if err != nil {
		return nil, err
	}
	return scannerToPB(*sc), nil
}

func (s *ScannerService) Blacklist(ctx context.Context, req *pb.BlacklistRequest) (*pb.Scanner, error) {
	var until *time.Time
	if v := req.GetUntil(); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, ErrInvalidBlacklistUntil
		}
		until = &t
	}
	sc, err := s.service.Blacklist(ctx, req.GetId(), until)
	if err != nil {
		return nil, err
	}
	return scannerToPB(*sc), nil
}

func (s *ScannerService) LiftBlacklist(ctx context.Context, req *pb.GetScannerRequest) (*pb.Scanner, error) {
	sc, err := s.service.LiftBlacklist(ctx, req.GetId())
	if err != nil {
		return nil, err
	}
	return scannerToPB(*sc), nil
}

func scannerToPB(sc domain.Scanner) *pb.Scanner {
	return &pb.Scanner{
		Id:                      sc.ID.String(),
		Name:                    sc.Name,
		Description:             sc.Description,
		ContactEmail:            sc.ContactEmail,
		Status:                  string(sc.Status),
		SuccessRate:             sc.SuccessRate,
		AverageCompletionTimeMs: sc.AverageCompletionTimeMs,
		TotalJobsCompleted:      sc.TotalJobsCompleted,
		TotalJobsFailed:         sc.TotalJobsFailed,
		CurrentActiveJobs:       sc.CurrentActiveJobs,
		IsBlacklisted:           sc.IsBlacklisted,
		BlacklistedUntil:        formatTimePtr(sc.BlacklistedUntil),
		LastHeartbeatAt:         formatTimePtr(sc.LastHeartbeatAt),
		CreatedAt:               formatTime(sc.CreatedAt),
		UpdatedAt:               formatTime(sc.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

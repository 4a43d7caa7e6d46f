package operator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	operatorPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

var (
	ErrOperatorOnCreate       = errors.New("error on creating new operator")
	ErrOperatorValidation     = errors.New("operator validation failed")
	ErrOperatorNotFound       = errors.New("operator not found")
	ErrInvalidPassword        = errors.New("invalid username or password")
	ErrSessionOnCreate        = errors.New("error on create session")
	ErrSessionOnInvalidate    = errors.New("error on invalidate session")
	ErrSessionNotFound        = domain.ErrSessionNotFound
	ErrUsernameTaken          = domain.ErrUsernameTaken
	ErrOperatorStorageFailure = errors.New("operator storage failure")
)

type operatorService struct {
	repo  operatorPort.Repo
	clock timeutils.Clock
}

func NewOperatorService(repo operatorPort.Repo, clock timeutils.Clock) operatorPort.Service {
	if clock == nil {
		clock = timeutils.SystemClock()
	}
	return &operatorService{
		repo:  repo,
		clock: clock,
	}
}

func (s *operatorService) CreateOperator(ctx context.Context, username, password, role string) (*domain.Operator, error) {
	username = domain.NormalizeUsername(username)
	if username == "" || len(password) < 8 {
		return nil, ErrOperatorValidation
	}
	if role != domain.RoleAdmin && role != domain.RoleOperator {
		return nil, fmt.Errorf("%w: unknown role %q", ErrOperatorValidation, role)
	}

	hash, err := domain.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOperatorOnCreate, err)
	}

	now := s.clock.Now()
	op := domain.Operator{
		ID:        uuid.New(),
		Username:  username,
		Password:  hash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, op); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%w: %w", ErrOperatorOnCreate, err)
	}
	return &op, nil
}

func (s *operatorService) Authenticate(ctx context.Context, username, password string) (*domain.Operator, error) {
	op, err := s.repo.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOperatorStorageFailure, err)
	}
	if op == nil || !op.CheckPassword(password) {
		logger.WarnContext(ctx, "operator sign-in rejected", "username", username)
		return nil, ErrInvalidPassword
	}
	return op, nil
}

// EnsureSeedAdmin creates the first admin account when no operator exists yet.
func (s *operatorService) EnsureSeedAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrOperatorStorageFailure, err)
	}
	if n > 0 {
		logger.InfoContext(ctx, "operators already seeded, skipping")
		return false, nil
	}
	if _, err := s.CreateOperator(ctx, username, password, domain.RoleAdmin); err != nil {
		return false, err
	}
	logger.InfoContext(ctx, "seed admin operator created", "username", domain.NormalizeUsername(username))
	return true, nil
}

func (s *operatorService) StoreSession(ctx context.Context, session domain.Session) error {
	if err := s.repo.StoreSession(ctx, session); err != nil {
		logger.ErrorContext(ctx, "failed to store operator session", "error", err.Error())
		return ErrSessionOnCreate
	}
	return nil
}

func (s *operatorService) InvalidateSession(ctx context.Context, refreshToken string) error {
	if err := s.repo.InvalidateSession(ctx, refreshToken); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return ErrSessionOnInvalidate
	}
	return nil
}

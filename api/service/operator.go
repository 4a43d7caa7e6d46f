package service

import (
	"context"
	"errors"

	jwt2 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	operatorPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/port"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/jwt"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
)

var (
	ErrInvalidOperatorPassword = operator.ErrInvalidPassword
	ErrSessionOnCreate         = operator.ErrSessionOnCreate
	ErrSessionOnInvalidate     = operator.ErrSessionOnInvalidate
	ErrSessionNotFound         = operator.ErrSessionNotFound

	ErrTokenOnCreate       = errors.New("error on creating tokens")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type OperatorService struct {
	service               operatorPort.Service
	clock                 timeutils.Clock
	authSecret            string
	expMin, refreshExpMin uint
}

func NewOperatorService(srv operatorPort.Service, clock timeutils.Clock, authSecret string, expMin, refreshExpMin uint) *OperatorService {
	if clock == nil {
		clock = timeutils.SystemClock()
	}
	return &OperatorService{
		service:       srv,
		clock:         clock,
		authSecret:    authSecret,
		expMin:        expMin,
		refreshExpMin: refreshExpMin,
	}
}

func (s *OperatorService) SignIn(ctx context.Context, req *pb.OperatorSignInRequest) (*pb.OperatorSignInResponse, error) {
	op, err := s.service.Authenticate(ctx, req.GetUsername(), req.GetPassword())
	if err != nil {
		return nil, err
	}

	access, refresh, err := s.createTokens(op)
	if err != nil {
		return nil, errors.Join(ErrTokenOnCreate, err)
	}

	err = s.service.StoreSession(ctx, domain.Session{
		OperatorID:   op.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		IsLogin:      true,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		return nil, ErrSessionOnCreate
	}

	return &pb.OperatorSignInResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// SignOut invalidates the session of a refresh token this coordinator signed.
// Expired tokens are still accepted so their session can be closed.
func (s *OperatorService) SignOut(ctx context.Context, req *pb.OperatorSignOutRequest) error {
	_, err := jwt.ParseToken(req.GetRefreshToken(), []byte(s.authSecret))
	if err != nil && !errors.Is(err, jwt2.ErrTokenExpired) {
		return errors.Join(ErrInvalidRefreshToken, err)
	}
	return s.service.InvalidateSession(ctx, req.GetRefreshToken())
}

func (s *OperatorService) createTokens(op *domain.Operator) (access, refresh string, err error) {
	access, err = jwt.CreateToken([]byte(s.authSecret), &jwt.UserClaims{
		RegisteredClaims: jwt2.RegisteredClaims{
			ExpiresAt: jwt2.NewNumericDate(timeutils.AddMinutes(s.clock, s.expMin)),
			IssuedAt:  jwt2.NewNumericDate(s.clock.Now()),
			Subject:   op.Username,
		},
		UserID: op.ID.String(),
		Role:   op.Role,
	})
	if err != nil {
		return
	}

	refresh, err = jwt.CreateToken([]byte(s.authSecret), &jwt.UserClaims{
		RegisteredClaims: jwt2.RegisteredClaims{
			ExpiresAt: jwt2.NewNumericDate(timeutils.AddMinutes(s.clock, s.refreshExpMin)),
			IssuedAt:  jwt2.NewNumericDate(s.clock.Now()),
			ID:        uuid.NewString(),
		},
		UserID: op.ID.String(),
		Role:   op.Role,
	})
	return
}

package mapper

import (
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/storage/types"
)

func OperatorDomain2Storage(op domain.Operator) *types.Operator {
	return &types.Operator{
		ID:        op.ID.String(),
		Username:  op.Username,
		Password:  op.Password,
		Role:      op.Role,
		CreatedAt: op.CreatedAt,
		UpdatedAt: op.UpdatedAt,
	}
}

func OperatorStorage2Domain(op types.Operator) (*domain.Operator, error) {
	id, err := domain.OperatorIDFromString(op.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Operator{
		ID:        id,
		Username:  op.Username,
		Password:  op.Password,
		Role:      op.Role,
		CreatedAt: op.CreatedAt,
		UpdatedAt: op.UpdatedAt,
	}, nil
}

func SessionDomain2Storage(session domain.Session) *types.Session {
	return &types.Session{
		OperatorID:   session.OperatorID.String(),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		IsLogin:      session.IsLogin,
		CreatedAt:    session.CreatedAt,
		LoggedOutAt:  session.LoggedOutAt,
	}
}

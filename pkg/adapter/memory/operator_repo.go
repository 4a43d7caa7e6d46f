package memory

import (
	"context"
	"sync"
	"time"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	operatorPort "gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/port"
)

type operatorRepo struct {
	mu         sync.RWMutex
	byUsername map[string]domain.Operator
	sessions   []domain.Session
}

func NewOperatorRepo() operatorPort.Repo {
	return &operatorRepo{
		byUsername: make(map[string]domain.Operator),
	}
}

func (r *operatorRepo) Create(ctx context.Context, operator domain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUsername[operator.Username]; ok {
		return domain.ErrUsernameTaken
	}
	r.byUsername[operator.Username] = operator
	return nil
}

func (r *operatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (r *operatorRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byUsername)), nil
}

func (r *operatorRepo) StoreSession(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *operatorRepo) InvalidateSession(ctx context.Context, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		s := &r.sessions[i]
		if s.RefreshToken == refreshToken && s.IsLogin {
			now := time.Now().UTC()
			s.IsLogin = false
			s.LoggedOutAt = &now
			return nil
		}
	}
	return domain.ErrSessionNotFound
}

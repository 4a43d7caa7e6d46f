package http_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt2 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpHandlers "gitlab.apk-group.net/siem/backend/scanner-coordinator/api/handlers/http"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/service"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/operator/domain"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/jwt"
	internalMocks "gitlab.apk-group.net/siem/backend/scanner-coordinator/tests/mocks/service"
)

const testSecret = "handler-test-secret"

func newOperatorTestApp(t *testing.T, setupMock func(*internalMocks.MockOperatorService)) (*fiber.App, *internalMocks.MockOperatorService) {
	t.Helper()
	m := new(internalMocks.MockOperatorService)
	if setupMock != nil {
		setupMock(m)
	}
	cfg := config.ServerConfig{Secret: testSecret, AuthExpMinute: 60, AuthRefreshMinute: 120}
	apiService := service.NewOperatorService(m, nil, cfg.Secret, cfg.AuthExpMinute, cfg.AuthRefreshMinute)
	getter := func(ctx context.Context) *service.OperatorService {
		return apiService
	}

	app := fiber.New()
	app.Post("/auth/sign-in", httpHandlers.SignIn(getter, cfg))
	app.Post("/auth/sign-out", httpHandlers.SignOut(getter))
	return app, m
}

func TestSignIn_Handler(t *testing.T) {
	op := &domain.Operator{ID: uuid.New(), Username: "admin", Role: domain.RoleAdmin}

	t.Run("valid credentials issue tokens", func(t *testing.T) {
		app, m := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("Authenticate", mock.Anything, "admin", "correct-horse").Return(op, nil)
			m.On("StoreSession", mock.Anything, mock.MatchedBy(func(s domain.Session) bool {
				return s.OperatorID == op.ID && s.IsLogin && s.RefreshToken != "" && s.AccessToken != s.RefreshToken
			})).Return(nil)
		})

		resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/sign-in",
			map[string]string{"username": "admin", "password": "correct-horse"}), -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		var refresh *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "refresh_token" {
				refresh = c
			}
		}
		require.NotNil(t, refresh)
		assert.True(t, refresh.HttpOnly)

		claims, err := jwt.ParseToken(refresh.Value, []byte(testSecret))
		require.NoError(t, err)
		assert.Equal(t, op.ID.String(), claims.UserID)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
		m.AssertExpectations(t)
	})

	t.Run("access token is in the body only", func(t *testing.T) {
		app, _ := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("Authenticate", mock.Anything, "admin", "correct-horse").Return(op, nil)
			m.On("StoreSession", mock.Anything, mock.Anything).Return(nil)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/sign-in",
			map[string]string{"username": "admin", "password": "correct-horse"}))

		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, string(env.Data), "accessToken")
		assert.NotContains(t, string(env.Data), "refreshToken")
	})

	t.Run("bad password", func(t *testing.T) {
		app, _ := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("Authenticate", mock.Anything, "admin", "wrong").Return(nil, service.ErrInvalidOperatorPassword)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/sign-in",
			map[string]string{"username": "admin", "password": "wrong"}))

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.False(t, env.Success)
	})

	t.Run("missing password", func(t *testing.T) {
		app, m := newOperatorTestApp(t, nil)

		status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/sign-in",
			map[string]string{"username": "admin"}))

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Missing required fields: password", env.Error)
		m.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session store failure", func(t *testing.T) {
		app, _ := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("Authenticate", mock.Anything, "admin", "correct-horse").Return(op, nil)
			m.On("StoreSession", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/sign-in",
			map[string]string{"username": "admin", "password": "correct-horse"}))

		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", env.Error)
	})
}

func signedRefreshToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	token, err := jwt.CreateToken([]byte(secret), &jwt.UserClaims{
		RegisteredClaims: jwt2.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt2.NewNumericDate(time.Now().Add(expiresIn)),
		},
		UserID: uuid.NewString(),
	})
	require.NoError(t, err)
	return token
}

func TestSignOut_Handler(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		app, m := newOperatorTestApp(t, nil)

		status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/sign-out", nil))

		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, string(env.Data), "Already logged out")
		m.AssertNotCalled(t, "InvalidateSession", mock.Anything, mock.Anything)
	})

	t.Run("invalidates the session", func(t *testing.T) {
		refresh := signedRefreshToken(t, testSecret, time.Hour)
		app, m := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("InvalidateSession", mock.Anything, refresh).Return(nil)
		})
		req := jsonRequest(http.MethodPost, "/auth/sign-out", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})

		status, env := doRequest(t, app, req)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, string(env.Data), "logged out successfully")
		m.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		stale := signedRefreshToken(t, testSecret, time.Hour)
		app, _ := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("InvalidateSession", mock.Anything, stale).Return(service.ErrSessionNotFound)
		})
		req := jsonRequest(http.MethodPost, "/auth/sign-out", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: stale})

		status, _ := doRequest(t, app, req)

		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("expired token still closes its session", func(t *testing.T) {
		expired := signedRefreshToken(t, testSecret, -time.Minute)
		app, m := newOperatorTestApp(t, func(m *internalMocks.MockOperatorService) {
			m.On("InvalidateSession", mock.Anything, expired).Return(nil)
		})
		req := jsonRequest(http.MethodPost, "/auth/sign-out", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: expired})

		status, _ := doRequest(t, app, req)

		assert.Equal(t, fiber.StatusOK, status)
		m.AssertExpectations(t)
	})

	t.Run("token signed elsewhere", func(t *testing.T) {
		app, m := newOperatorTestApp(t, nil)
		for _, cookie := range []string{"not-a-jwt", signedRefreshToken(t, "other-secret", time.Hour)} {
			req := jsonRequest(http.MethodPost, "/auth/sign-out", nil)
			req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookie})

			status, env := doRequest(t, app, req)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "invalid refresh token", env.Error)
		}
		m.AssertNotCalled(t, "InvalidateSession", mock.Anything, mock.Anything)
	})
}

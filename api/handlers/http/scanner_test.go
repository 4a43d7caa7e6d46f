package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpHandlers "gitlab.apk-group.net/siem/backend/scanner-coordinator/api/handlers/http"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/service"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	fixtures "gitlab.apk-group.net/siem/backend/scanner-coordinator/tests/fixtures/domain"
	internalMocks "gitlab.apk-group.net/siem/backend/scanner-coordinator/tests/mocks/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newScannerTestApp(t *testing.T, setupMock func(*internalMocks.MockScannerService)) (*fiber.App, *internalMocks.MockScannerService) {
	t.Helper()
	mockInternalService := new(internalMocks.MockScannerService)
	if setupMock != nil {
		setupMock(mockInternalService)
	}
	apiService := service.NewScannerService(mockInternalService)
	serviceGetter := func(ctx context.Context) *service.ScannerService {
		return apiService
	}

	app := fiber.New()
	app.Post("/scanners", httpHandlers.RegisterScanner(serviceGetter))
	app.Post("/scanners/:id/heartbeat", httpHandlers.Heartbeat(serviceGetter))
	app.Get("/scanners/metrics", httpHandlers.GetFleetMetrics(serviceGetter))
	app.Get("/scanners/ranking", httpHandlers.RankScanners(serviceGetter))
	app.Get("/scanners", httpHandlers.ListScanners(serviceGetter))
	app.Get("/scanners/:id", httpHandlers.GetScanner(serviceGetter))
	app.Post("/scanners/:id/outcomes", httpHandlers.RecordOutcome(serviceGetter))
	app.Post("/scanners/:id/blacklist", httpHandlers.BlacklistScanner(serviceGetter))
	app.Delete("/scanners/:id/blacklist", httpHandlers.LiftBlacklist(serviceGetter))
	return app, mockInternalService
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewBuffer(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterScanner_Handler(t *testing.T) {
	registered := fixtures.NewTestScanner()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*internalMocks.MockScannerService)
		expectedStatus int
		validate       func(t *testing.T, env envelope)
	}{
		{
			name: "successful registration returns the key once",
			requestBody: map[string]string{
				"name":         "  Archive Scanner ",
				"description":  "Checks uploaded archives",
				"contactEmail": "OPS@example.org",
			},
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("RegisterScanner", mock.Anything, domain.Registration{
					Name:         "Archive Scanner",
					Description:  "Checks uploaded archives",
					ContactEmail: "OPS@example.org",
				}).Return(&registered, nil)
			},
			expectedStatus: fiber.StatusCreated,
			validate: func(t *testing.T, env envelope) {
				assert.True(t, env.Success)
				var data map[string]interface{}
				require.NoError(t, json.Unmarshal(env.Data, &data))
				assert.Equal(t, registered.ID.String(), data["id"])
				assert.Equal(t, fixtures.TestAPIKey, data["apiKey"])
				assert.Equal(t, "pending", data["status"])
				assert.Equal(t, "ops@example.org", data["contactEmail"])
			},
		},
		{
			name:           "missing name and email",
			requestBody:    map[string]string{"description": "x"},
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.False(t, env.Success)
				assert.Equal(t, "Missing required fields: name, contactEmail", env.Error)
			},
		},
		{
			name:           "whitespace-only name is missing",
			requestBody:    map[string]string{"name": "   ", "contactEmail": "ops@example.org"},
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Equal(t, "Missing required fields: name", env.Error)
			},
		},
		{
			name:           "invalid email",
			requestBody:    map[string]string{"name": "Archive Scanner", "contactEmail": "not-an-email"},
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Equal(t, "Invalid email format", env.Error)
			},
		},
		{
			name:           "name too long",
			requestBody:    map[string]string{"name": fixtures.LongString(101), "contactEmail": "ops@example.org"},
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Contains(t, env.Error, "name must be at most 100")
			},
		},
		{
			name:           "description too long",
			requestBody:    map[string]string{"name": "Archive Scanner", "description": fixtures.LongString(501), "contactEmail": "ops@example.org"},
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Contains(t, env.Error, "description must be at most 500")
			},
		},
		{
			name:           "invalid JSON request body",
			requestBody:    "invalid json",
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Equal(t, "Invalid request body", env.Error)
			},
		},
		{
			name:        "duplicate email is a client error",
			requestBody: map[string]string{"name": "Archive Scanner", "contactEmail": "ops@example.org"},
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("RegisterScanner", mock.Anything, mock.AnythingOfType("domain.Registration")).
					Return(nil, service.ErrDuplicateScanner)
			},
			expectedStatus: fiber.StatusBadRequest,
			validate: func(t *testing.T, env envelope) {
				assert.Equal(t, service.ErrDuplicateScanner.Error(), env.Error)
			},
		},
		{
			name:        "storage failure hides the cause",
			requestBody: map[string]string{"name": "Archive Scanner", "contactEmail": "ops@example.org"},
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("RegisterScanner", mock.Anything, mock.AnythingOfType("domain.Registration")).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: fiber.StatusInternalServerError,
			validate: func(t *testing.T, env envelope) {
				assert.Equal(t, "Internal server error", env.Error)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, m := newScannerTestApp(t, tt.setupMock)

			status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/scanners", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, status)
			tt.validate(t, env)
			m.AssertExpectations(t)
		})
	}
}

func TestHeartbeat_Handler(t *testing.T) {
	online := fixtures.NewTestOnlineScanner(0)
	id := online.ID.String()

	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(*internalMocks.MockScannerService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:       "accepted",
			authHeader: "Bearer " + fixtures.TestAPIKey,
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("Heartbeat", mock.Anything, id, fixtures.TestAPIKey).Return(&online, nil)
			},
			expectedStatus: fiber.StatusOK,
		},
		{
			name:           "missing header",
			expectedStatus: fiber.StatusUnauthorized,
			expectedError:  "Authorization header required",
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic " + fixtures.TestAPIKey,
			expectedStatus: fiber.StatusUnauthorized,
			expectedError:  "Invalid authorization format. Use: Bearer <api-key>",
		},
		{
			name:           "extra parts",
			authHeader:     "Bearer a b",
			expectedStatus: fiber.StatusUnauthorized,
			expectedError:  "Invalid authorization format. Use: Bearer <api-key>",
		},
		{
			name:       "wrong key",
			authHeader: "Bearer nope",
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("Heartbeat", mock.Anything, id, "nope").Return(nil, service.ErrInvalidCredential)
			},
			expectedStatus: fiber.StatusUnauthorized,
			expectedError:  service.ErrInvalidCredential.Error(),
		},
		{
			name:       "unknown scanner",
			authHeader: "Bearer " + fixtures.TestAPIKey,
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("Heartbeat", mock.Anything, id, fixtures.TestAPIKey).Return(nil, service.ErrScannerNotFound)
			},
			expectedStatus: fiber.StatusUnauthorized,
			expectedError:  service.ErrScannerNotFound.Error(),
		},
		{
			name:       "blacklisted scanner",
			authHeader: "Bearer " + fixtures.TestAPIKey,
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("Heartbeat", mock.Anything, id, fixtures.TestAPIKey).Return(nil, service.ErrScannerBlacklisted)
			},
			expectedStatus: fiber.StatusForbidden,
			expectedError:  service.ErrScannerBlacklisted.Error(),
		},
		{
			name:       "storage failure",
			authHeader: "Bearer " + fixtures.TestAPIKey,
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("Heartbeat", mock.Anything, id, fixtures.TestAPIKey).Return(nil, errors.New("deadlock"))
			},
			expectedStatus: fiber.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, m := newScannerTestApp(t, tt.setupMock)
			req := jsonRequest(http.MethodPost, "/scanners/"+id+"/heartbeat", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			status, env := doRequest(t, app, req)

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedError, env.Error)
			if tt.expectedStatus == fiber.StatusOK {
				var data map[string]string
				require.NoError(t, json.Unmarshal(env.Data, &data))
				assert.Equal(t, id, data["id"])
				assert.Equal(t, "online", data["status"])
				assert.Equal(t, fixtures.FixedNow.Format(time.RFC3339), data["lastHeartbeatAt"])
			}
			m.AssertExpectations(t)
		})
	}
}

func TestGetFleetMetrics_Handler(t *testing.T) {
	t.Run("returns aggregate", func(t *testing.T) {
		app, m := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("FleetMetrics", mock.Anything).Return(&domain.FleetMetrics{
				TotalScanners:      3,
				ActiveScanners:     2,
				PendingScanners:    1,
				AverageSuccessRate: 87.5,
				TotalJobsCompleted: 7,
				TotalJobsFailed:    1,
			}, nil)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners/metrics", nil))

		assert.Equal(t, fiber.StatusOK, status)
		var data map[string]float64
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, float64(3), data["totalScanners"])
		assert.Equal(t, float64(2), data["activeScanners"])
		assert.Equal(t, 87.5, data["averageSuccessRate"])
		assert.Equal(t, float64(0), data["averageCompletionTimeMs"])
		m.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		app, _ := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("FleetMetrics", mock.Anything).Return(nil, errors.New("boom"))
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners/metrics", nil))

		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", env.Error)
	})
}

func TestRankScanners_Handler(t *testing.T) {
	a := fixtures.NewTestOnlineScanner(time.Minute)
	b := fixtures.NewTestOnlineScanner(4 * time.Minute)
	app, m := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
		m.On("RankScanners", mock.Anything).Return(&domain.Ranking{
			EvaluatedAt: fixtures.FixedNow,
			Scanners: []domain.RankedScanner{
				{Scanner: a, Weight: 120},
				{Scanner: b, Weight: 80},
			},
		}, nil)
	})

	status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners/ranking", nil))

	assert.Equal(t, fiber.StatusOK, status)
	var data struct {
		EvaluatedAt string `json:"evaluatedAt"`
		Scanners    []struct {
			Scanner map[string]interface{} `json:"scanner"`
			Weight  int                    `json:"weight"`
		} `json:"scanners"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "2025-03-01T12:00:00Z", data.EvaluatedAt)
	require.Len(t, data.Scanners, 2)
	assert.Equal(t, 120, data.Scanners[0].Weight)
	assert.Equal(t, a.ID.String(), data.Scanners[0].Scanner["id"])
	assert.NotContains(t, data.Scanners[0].Scanner, "apiKey")
	m.AssertExpectations(t)
}

func TestListScanners_Handler(t *testing.T) {
	sc := fixtures.NewTestOnlineScanner(time.Minute)

	t.Run("query parameters become the filter", func(t *testing.T) {
		blacklisted := false
		app, m := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("ListScanners", mock.Anything, domain.ScannerFilter{
				Status:      domain.StatusOnline,
				Blacklisted: &blacklisted,
				Limit:       10,
				Offset:      5,
			}).Return([]domain.Scanner{sc}, nil)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners?status=online&blacklisted=false&limit=10&offset=5", nil))

		assert.Equal(t, fiber.StatusOK, status)
		var data struct {
			Count    int                      `json:"count"`
			Scanners []map[string]interface{} `json:"scanners"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, 1, data.Count)
		assert.NotContains(t, data.Scanners[0], "apiKey")
		m.AssertExpectations(t)
	})

	t.Run("unknown status is rejected before the service", func(t *testing.T) {
		app, m := newScannerTestApp(t, nil)

		status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners?status=sleeping", nil))

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, env.Error, "status")
		m.AssertNotCalled(t, "ListScanners", mock.Anything, mock.Anything)
	})
}

func TestGetScanner_Handler(t *testing.T) {
	sc := fixtures.NewTestScanner()

	t.Run("found", func(t *testing.T) {
		app, _ := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("GetScanner", mock.Anything, sc.ID.String()).Return(&sc, nil)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners/"+sc.ID.String(), nil))

		assert.Equal(t, fiber.StatusOK, status)
		assert.NotContains(t, string(env.Data), fixtures.TestAPIKey)
	})

	t.Run("not found", func(t *testing.T) {
		app, _ := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("GetScanner", mock.Anything, "missing").Return(nil, service.ErrScannerNotFound)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodGet, "/scanners/missing", nil))

		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, service.ErrScannerNotFound.Error(), env.Error)
	})
}

func TestRecordOutcome_Handler(t *testing.T) {
	sc := fixtures.NewTestOnlineScanner(time.Minute)
	id := sc.ID.String()
	updated := sc.RecordOutcome(5000, true)

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*internalMocks.MockScannerService)
		expectedStatus int
	}{
		{
			name: "success outcome",
			body: map[string]interface{}{"completionTimeMs": 5000, "success": true},
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("RecordOutcome", mock.Anything, id, int64(5000), true).Return(&updated, nil)
			},
			expectedStatus: fiber.StatusOK,
		},
		{
			name: "explicit failure is not a missing field",
			body: map[string]interface{}{"completionTimeMs": 0, "success": false},
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("RecordOutcome", mock.Anything, id, int64(0), false).Return(&sc, nil)
			},
			expectedStatus: fiber.StatusOK,
		},
		{
			name:           "missing success flag",
			body:           map[string]interface{}{"completionTimeMs": 10},
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name:           "negative completion time",
			body:           map[string]interface{}{"completionTimeMs": -1, "success": true},
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name: "unknown scanner",
			body: map[string]interface{}{"completionTimeMs": 10, "success": true},
			setupMock: func(m *internalMocks.MockScannerService) {
				m.On("RecordOutcome", mock.Anything, id, int64(10), true).Return(nil, service.ErrScannerNotFound)
			},
			expectedStatus: fiber.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, m := newScannerTestApp(t, tt.setupMock)

			status, _ := doRequest(t, app, jsonRequest(http.MethodPost, "/scanners/"+id+"/outcomes", tt.body))

			assert.Equal(t, tt.expectedStatus, status)
			m.AssertExpectations(t)
		})
	}
}

func TestBlacklist_Handler(t *testing.T) {
	sc := fixtures.NewTestBlacklistedScanner()
	id := sc.ID.String()

	t.Run("blacklist without end", func(t *testing.T) {
		app, m := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("Blacklist", mock.Anything, id, (*time.Time)(nil)).Return(&sc, nil)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodPost, "/scanners/"+id+"/blacklist", nil))

		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, string(env.Data), `"isBlacklisted":true`)
		m.AssertExpectations(t)
	})

	t.Run("blacklist until a timestamp", func(t *testing.T) {
		until := fixtures.FixedNow.Add(24 * time.Hour)
		app, m := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("Blacklist", mock.Anything, id, mock.MatchedBy(func(u *time.Time) bool {
				return u != nil && u.Equal(until)
			})).Return(&sc, nil)
		})

		status, _ := doRequest(t, app, jsonRequest(http.MethodPost, "/scanners/"+id+"/blacklist",
			map[string]string{"until": until.Format(time.RFC3339)}))

		assert.Equal(t, fiber.StatusOK, status)
		m.AssertExpectations(t)
	})

	t.Run("malformed until", func(t *testing.T) {
		app, m := newScannerTestApp(t, nil)

		status, _ := doRequest(t, app, jsonRequest(http.MethodPost, "/scanners/"+id+"/blacklist",
			map[string]string{"until": "tomorrow"}))

		assert.Equal(t, fiber.StatusBadRequest, status)
		m.AssertNotCalled(t, "Blacklist", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lift", func(t *testing.T) {
		lifted := sc
		lifted.IsBlacklisted = false
		app, m := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("LiftBlacklist", mock.Anything, id).Return(&lifted, nil)
		})

		status, env := doRequest(t, app, jsonRequest(http.MethodDelete, "/scanners/"+id+"/blacklist", nil))

		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, string(env.Data), `"isBlacklisted":false`)
		m.AssertExpectations(t)
	})

	t.Run("lift unknown scanner", func(t *testing.T) {
		app, _ := newScannerTestApp(t, func(m *internalMocks.MockScannerService) {
			m.On("LiftBlacklist", mock.Anything, id).Return(nil, service.ErrScannerNotFound)
		})

		status, _ := doRequest(t, app, jsonRequest(http.MethodDelete, "/scanners/"+id+"/blacklist", nil))

		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

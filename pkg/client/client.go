// Package client is the scanner-side SDK for the coordinator API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
)

const (
	registerPath  = "/api/v1/community-scanners"
	heartbeatPath = "/api/v1/community-scanners/{id}/heartbeat"

	defaultTimeout = 10 * time.Second
)

var (
	// ErrUnauthorized means the id or api key was rejected. Retrying will not help.
	ErrUnauthorized = errors.New("coordinator rejected scanner credentials")
	// ErrForbidden means the scanner is blacklisted.
	ErrForbidden = errors.New("scanner is blacklisted by the coordinator")
)

// APIError is any other non-2xx answer from the coordinator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coordinator error: status %d: %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

type Client struct {
	http *resty.Client
}

type Option func(*resty.Client)

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

// WithRetries retries transport errors and 5xx answers count times.
func WithRetries(count int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}
}

func New(baseURL string, opts ...Option) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(defaultTimeout)
	for _, opt := range opts {
		opt(client)
	}
	return &Client{http: client}
}

// Register creates a scanner. The returned api key is shown only once.
func (c *Client) Register(ctx context.Context, req *pb.RegisterScannerRequest) (*pb.RegisterScannerResponse, error) {
	var out envelope[pb.RegisterScannerResponse]
	var failure envelope[struct{}]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post(registerPath)
	if err != nil {
		return nil, fmt.Errorf("register scanner: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, statusError(resp.StatusCode(), failure.Error)
	}
	return &out.Data, nil
}

func (c *Client) Heartbeat(ctx context.Context, scannerID, apiKey string) (*pb.HeartbeatResponse, error) {
	var out envelope[pb.HeartbeatResponse]
	var failure envelope[struct{}]
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetPathParam("id", scannerID).
		SetResult(&out).
		SetError(&failure).
		Post(heartbeatPath)
	if err != nil {
		return nil, fmt.Errorf("send heartbeat: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp.StatusCode(), failure.Error)
	}
	return &out.Data, nil
}

// RunHeartbeats sends a heartbeat now and then every interval until ctx is
// done. Rejected credentials and blacklisting end the loop with an error;
// other failures are logged and retried on the next tick.
func (c *Client) RunHeartbeats(ctx context.Context, scannerID, apiKey string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Heartbeat(ctx, scannerID, apiKey); err != nil {
			if IsTerminal(err) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			logger.WarnContext(ctx, "heartbeat failed, will retry", "scanner_id", scannerID, "error", err.Error())
		} else {
			logger.DebugContext(ctx, "heartbeat sent", "scanner_id", scannerID)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// IsTerminal reports whether err means the scanner must stop heartbeating.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

func statusError(status int, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	default:
		return &APIError{StatusCode: status, Message: message}
	}
}

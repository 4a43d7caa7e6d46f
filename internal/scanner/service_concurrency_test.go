package scanner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/adapter/memory"
	timeutils "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/time"
	domainFixtures "gitlab.apk-group.net/siem/backend/scanner-coordinator/tests/fixtures/domain"
)

func TestScannerService_ConcurrentRegistrationSameEmail(t *testing.T) {
	svc := scanner.NewScannerService(memory.NewScannerRepo())

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RegisterScanner(context.Background(), domainFixtures.NewTestRegistration())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, scanner.ErrDuplicateScanner) {
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, dupes)
}

func TestScannerService_ConcurrentHeartbeatsAndOutcomes(t *testing.T) {
	clock := timeutils.NewManualClock(domainFixtures.FixedNow)
	svc := scanner.NewScannerService(memory.NewScannerRepo(), scanner.WithClock(clock))
	ctx := context.Background()

	reg, err := svc.RegisterScanner(ctx, domainFixtures.NewTestRegistration())
	require.NoError(t, err)
	id := reg.ID.String()

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(rounds * 2)
	for i := 0; i < rounds; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Heartbeat(ctx, id, reg.APIKey)
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordOutcome(ctx, id, 2000, i%5 != 0)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := svc.GetScanner(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnline, got.Status)
	assert.Equal(t, int64(40), got.TotalJobsCompleted)
	assert.Equal(t, int64(10), got.TotalJobsFailed)
	assert.Equal(t, 80, got.SuccessRate)
	assert.Equal(t, int64(2000), got.AverageCompletionTimeMs)
}

func TestScannerService_RejectedHeartbeatDoesNotWrite(t *testing.T) {
	clock := timeutils.NewManualClock(domainFixtures.FixedNow)
	svc := scanner.NewScannerService(memory.NewScannerRepo(), scanner.WithClock(clock))
	ctx := context.Background()

	reg, err := svc.RegisterScanner(ctx, domainFixtures.NewTestRegistration())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = svc.Heartbeat(ctx, reg.ID.String(), "wrong")
	assert.ErrorIs(t, err, scanner.ErrInvalidCredential)

	got, err := svc.GetScanner(ctx, reg.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.LastHeartbeatAt)
	assert.Equal(t, reg.UpdatedAt, got.UpdatedAt)

	_, err = svc.Blacklist(ctx, reg.ID.String(), nil)
	require.NoError(t, err)
	_, err = svc.Heartbeat(ctx, reg.ID.String(), reg.APIKey)
	assert.ErrorIs(t, err, scanner.ErrScannerBlacklisted)

	got, err = svc.GetScanner(ctx, reg.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.LastHeartbeatAt)
}

func TestScannerService_HeartbeatTiming(t *testing.T) {
	clock := timeutils.NewManualClock(domainFixtures.FixedNow)
	svc := scanner.NewScannerService(memory.NewScannerRepo(), scanner.WithClock(clock))
	ctx := context.Background()

	reg, err := svc.RegisterScanner(ctx, domainFixtures.NewTestRegistration())
	require.NoError(t, err)

	hb, err := svc.Heartbeat(ctx, reg.ID.String(), reg.APIKey)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnline, hb.Status)
	assert.Greater(t, hb.Weight(clock.Now()), 0)

	clock.Advance(5*time.Minute + time.Second)
	got, err := svc.GetScanner(ctx, reg.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Weight(clock.Now()))

	ranking, err := svc.RankScanners(ctx)
	require.NoError(t, err)
	assert.Empty(t, ranking.Scanners)
	assert.True(t, clock.Now().Equal(ranking.EvaluatedAt))
}

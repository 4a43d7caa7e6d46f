package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/scanner/domain"
)

// FixedNow is the evaluation instant shared by scanner tests.
var FixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const TestAPIKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// NewTestRegistration creates a valid registration request
func NewTestRegistration() domain.Registration {
	return domain.Registration{
		Name:         "Archive Scanner",
		Description:  "Checks uploaded archives",
		ContactEmail: "ops@example.org",
	}
}

// NewTestScanner creates a pending scanner that has never sent a heartbeat
func NewTestScanner() domain.Scanner {
	return domain.NewScanner(uuid.New(), NewTestRegistration(), TestAPIKey, FixedNow.Add(-time.Hour))
}

// NewTestOnlineScanner creates an online scanner whose last heartbeat was ago before FixedNow
func NewTestOnlineScanner(ago time.Duration) domain.Scanner {
	s := NewTestScanner()
	return s.Heartbeat(FixedNow.Add(-ago))
}

// NewTestBlacklistedScanner creates an online scanner with the blacklist flag set
func NewTestBlacklistedScanner() domain.Scanner {
	s := NewTestOnlineScanner(time.Minute)
	s.IsBlacklisted = true
	return s
}

// LongString returns a string of n runes
func LongString(n int) string {
	return strings.Repeat("a", n)
}

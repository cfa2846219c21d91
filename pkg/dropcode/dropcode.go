// Package dropcode implements the secret-code gate attached to faucets:
// code generation, validity windows, and rotation semantics. Persistence
// lives in pkg/store; everything here is pure.
package dropcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Alphabet is the exact character set codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the exact code length.
const Length = 6

const (
	// rotationWindow is the validity window granted when rotation starts a
	// fresh window.
	rotationWindow = 30 * 24 * time.Hour
	// futureMinWindow is the minimum window length guaranteed when rotating
	// a code whose window hasn't started yet.
	futureMinWindow = 7 * 24 * time.Hour
)

// Generate produces a 6-character code, each character independently and
// uniformly drawn from [A-Z0-9] with a cryptographically-strong RNG.
func Generate() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	code := make([]byte, Length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("reading randomness: %s", err)
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// Record is a stored code with its validity window. Times are unix seconds.
type Record struct {
	FaucetAddress string    `json:"faucetAddress"`
	Code          string    `json:"code"`
	StartTime     int64     `json:"startTime"`
	EndTime       int64     `json:"endTime"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsValidAt reports whether the window covers t. Both boundaries are
// inclusive.
func (r Record) IsValidAt(t time.Time) bool {
	now := t.Unix()
	return now >= r.StartTime && now <= r.EndTime
}

// IsExpiredAt reports whether the window ended before t.
func (r Record) IsExpiredAt(t time.Time) bool {
	return t.Unix() > r.EndTime
}

// IsFutureAt reports whether the window starts after t.
func (r Record) IsFutureAt(t time.Time) bool {
	return t.Unix() < r.StartTime
}

// TimeRemainingAt returns the seconds until the window ends, floored at 0.
func (r Record) TimeRemainingAt(t time.Time) int64 {
	remaining := r.EndTime - t.Unix()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// VerifyReason classifies a verification outcome.
type VerifyReason string

// Verification outcomes.
const (
	ReasonValid    VerifyReason = "valid"
	ReasonNoRecord VerifyReason = "no_code_set"
	ReasonMismatch VerifyReason = "code_mismatch"
	ReasonExpired  VerifyReason = "code_expired"
	ReasonFuture   VerifyReason = "code_not_active_yet"
)

// Verify checks candidate against the stored record at time t. A nil
// record means no code was ever set for the faucet.
func Verify(record *Record, candidate string, t time.Time) VerifyReason {
	if record == nil {
		return ReasonNoRecord
	}
	if record.Code != candidate {
		return ReasonMismatch
	}
	if record.IsFutureAt(t) {
		return ReasonFuture
	}
	if record.IsExpiredAt(t) {
		return ReasonExpired
	}
	return ReasonValid
}

// RotateWindow chooses the validity window for a rotated code given the
// existing record (nil when none). Cases:
//   - no record, or expired record: fresh [now, now+30d) window, the new
//     code activates immediately;
//   - future record: keep the start, guarantee at least 7 days from start;
//   - currently-valid record: keep the active window, only the code value
//     changes.
func RotateWindow(existing *Record, now time.Time) (start, end int64) {
	switch {
	case existing == nil || existing.IsExpiredAt(now):
		return now.Unix(), now.Add(rotationWindow).Unix()
	case existing.IsFutureAt(now):
		start = existing.StartTime
		end = existing.EndTime
		if min := start + int64(futureMinWindow/time.Second); end < min {
			end = min
		}
		return start, end
	default:
		return existing.StartTime, existing.EndTime
	}
}

// ValidateWindow rejects malformed windows before they are stored.
func ValidateWindow(start, end int64) error {
	if start < 0 || end < 0 {
		return fmt.Errorf("window times must be unix seconds")
	}
	if end <= start {
		return fmt.Errorf("end time %d must be after start time %d", end, start)
	}
	return nil
}

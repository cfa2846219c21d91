package dropcode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, Length)
		for _, c := range code {
			require.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q", c)
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a 36^6 space collide with negligible probability.
	require.Greater(t, len(seen), 195)
}

func TestWindowBoundaries(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	record := Record{Code: "A1B2C3", StartTime: start.Unix(), EndTime: end.Unix()}

	require.True(t, record.IsValidAt(start))
	require.True(t, record.IsValidAt(end))
	require.False(t, record.IsValidAt(end.Add(time.Second)))
	require.True(t, record.IsExpiredAt(end.Add(time.Second)))
	require.False(t, record.IsExpiredAt(end))
	require.True(t, record.IsFutureAt(start.Add(-time.Second)))
	require.False(t, record.IsFutureAt(start))

	require.Equal(t, int64(3600), record.TimeRemainingAt(start))
	require.Equal(t, int64(0), record.TimeRemainingAt(end.Add(time.Hour)))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &Record{
		Code:      "A1B2C3",
		StartTime: now.Add(-time.Minute).Unix(),
		EndTime:   now.Add(time.Hour).Unix(),
	}

	type testCase struct {
		name      string
		record    *Record
		candidate string
		at        time.Time
		want      VerifyReason
	}

	tests := []testCase{
		{name: "valid", record: record, candidate: "A1B2C3", at: now, want: ReasonValid},
		{name: "no-record", record: nil, candidate: "A1B2C3", at: now, want: ReasonNoRecord},
		{name: "mismatch", record: record, candidate: "ZZZZZZ", at: now, want: ReasonMismatch},
		{name: "expired", record: record, candidate: "A1B2C3", at: now.Add(2 * time.Hour), want: ReasonExpired},
		{name: "future", record: record, candidate: "A1B2C3", at: now.Add(-time.Hour), want: ReasonFuture},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Verify(tc.record, tc.candidate, tc.at))
		})
	}
}

func TestRotateWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no existing record", func(t *testing.T) {
		t.Parallel()
		start, end := RotateWindow(nil, now)
		require.Equal(t, now.Unix(), start)
		require.Equal(t, now.AddDate(0, 0, 30).Unix(), end)
	})

	t.Run("expired record", func(t *testing.T) {
		t.Parallel()
		existing := &Record{StartTime: now.AddDate(0, 0, -40).Unix(), EndTime: now.AddDate(0, 0, -10).Unix()}
		start, end := RotateWindow(existing, now)
		require.Equal(t, now.Unix(), start)
		require.Equal(t, now.AddDate(0, 0, 30).Unix(), end)
	})

	t.Run("future record keeps start and stretches short windows", func(t *testing.T) {
		t.Parallel()
		futureStart := now.AddDate(0, 0, 2)
		existing := &Record{StartTime: futureStart.Unix(), EndTime: futureStart.Add(time.Hour).Unix()}
		start, end := RotateWindow(existing, now)
		require.Equal(t, futureStart.Unix(), start)
		require.Equal(t, futureStart.AddDate(0, 0, 7).Unix(), end)
	})

	t.Run("future record keeps long windows", func(t *testing.T) {
		t.Parallel()
		futureStart := now.AddDate(0, 0, 2)
		futureEnd := futureStart.AddDate(0, 0, 14)
		existing := &Record{StartTime: futureStart.Unix(), EndTime: futureEnd.Unix()}
		start, end := RotateWindow(existing, now)
		require.Equal(t, futureStart.Unix(), start)
		require.Equal(t, futureEnd.Unix(), end)
	})

	t.Run("valid record keeps both bounds", func(t *testing.T) {
		t.Parallel()
		existing := &Record{StartTime: now.Add(-time.Hour).Unix(), EndTime: now.Add(time.Hour).Unix()}
		start, end := RotateWindow(existing, now)
		require.Equal(t, existing.StartTime, start)
		require.Equal(t, existing.EndTime, end)
	})
}

func TestValidateWindow(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateWindow(100, 200))
	require.Error(t, ValidateWindow(200, 100))
	require.Error(t, ValidateWindow(100, 100))
}

package dataflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheManagerRoundTrip(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Minute, true)

	params := map[string]string{"symbol": "AAPL"}
	require.NoError(t, cache.Set("fmp", "profile", params, map[string]string{"name": "Apple"}))

	var out map[string]string
	require.True(t, cache.Get("fmp", "profile", params, &out))
	require.Equal(t, "Apple", out["name"])

	var miss map[string]string
	require.False(t, cache.Get("fmp", "profile", map[string]string{"symbol": "MSFT"}, &miss))
}

func TestCacheManagerExpiry(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), 30*time.Millisecond, true)

	require.NoError(t, cache.Set("fmp", "quote", "AAPL", "cached"))

	var out string
	require.True(t, cache.Get("fmp", "quote", "AAPL", &out))

	time.Sleep(50 * time.Millisecond)
	require.False(t, cache.Get("fmp", "quote", "AAPL", &out), "expired entries must miss")
}

func TestCacheManagerDisabled(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Minute, false)

	require.NoError(t, cache.Set("fmp", "quote", "AAPL", "cached"))

	var out string
	require.False(t, cache.Get("fmp", "quote", "AAPL", &out))
}

func TestWithRetryEventualSuccess(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	err := WithRetry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}

	sentinel := errors.New("hard failure")
	err := WithRetry(context.Background(), cfg, func() error { return sentinel })

	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
}

func TestWithRetryAbortsWhenContextExpires(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1.0}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sentinel := errors.New("transient")
	attempts := 0
	start := time.Now()
	err := WithRetry(ctx, cfg, func() error {
		attempts++
		return sentinel
	})

	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, attempts, "no further attempts once the deadline is spent")
	require.Less(t, time.Since(start), time.Minute, "the backoff sleep must not outlive the context")
}

func TestWithRetryCancelledBeforeFirstAttempt(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1.0}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, cfg, func() error { return ctx.Err() })
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidateSymbol(t *testing.T) {
	for _, valid := range []string{"AAPL", "aapl", " tpc ", "BRK.B", "RDS-A", "A"} {
		require.NoError(t, ValidateSymbol(valid), "symbol %q should be valid", valid)
	}

	for _, invalid := range []string{"", "   ", "WAYTOOLONGTICKER", "BAD$CHAR", "SPA CE"} {
		require.Error(t, ValidateSymbol(invalid), "symbol %q should be invalid", invalid)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
	require.Equal(t, "BRK.B", NormalizeSymbol("brk.b"))
}

func TestParseDateString(t *testing.T) {
	for _, date := range []string{"2025-06-10", "2025-06-10 15:04:05", "06/10/2025", "2025-06-10T15:04:05Z"} {
		parsed, err := ParseDateString(date)
		require.NoError(t, err, "date %q should parse", date)
		require.Equal(t, 2025, parsed.Year())
	}

	_, err := ParseDateString("next tuesday")
	require.Error(t, err)
}

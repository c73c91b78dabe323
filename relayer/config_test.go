package relayer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, time.Second, cfg.PollInterval)
	require.Equal(t, 5*time.Second, cfg.RetryDelay())
	require.Zero(t, cfg.AdapterTimeout())
}

func TestConfigValidateCollectsAllErrors(t *testing.T) {
	cfg := Config{EnableAutoPruning: true}

	err := cfg.Validate()
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 4)
	for _, e := range multierr.Errors(err) {
		require.ErrorIs(t, e, ErrConfigurationKind)
	}
}

func TestConfigValidateRejectsOverflowingDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MessageHistoryHours = 3_000_000
	cfg.RetryDelaySecs = math.MaxUint64
	cfg.AdapterTimeoutSecs = MaxDurationSecs + 1

	err := cfg.Validate()
	require.Len(t, multierr.Errors(err), 3)
	require.ErrorContains(t, err, "message-history-hours must be at most")
	require.ErrorContains(t, err, "retry-delay-secs must be at most")
	require.ErrorContains(t, err, "adapter-timeout-secs must be at most")

	cfg.MessageHistoryHours = MaxMessageHistoryHours
	cfg.RetryDelaySecs = MaxDurationSecs
	cfg.AdapterTimeoutSecs = MaxDurationSecs
	require.NoError(t, cfg.Validate())
	require.Equal(t, time.Duration(MaxDurationSecs)*time.Second, cfg.RetryDelay())
	require.Equal(t, cfg.RetryDelay(), cfg.AdapterTimeout())
}

func TestDurationOfSaturates(t *testing.T) {
	require.Equal(t, 2*time.Hour, durationOf(2, time.Hour))
	require.Equal(t, time.Duration(math.MaxInt64), durationOf(math.MaxUint64, time.Hour))
	require.Equal(t, time.Duration(math.MaxInt64), durationOf(MaxDurationSecs+1, time.Second))
}

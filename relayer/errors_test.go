package relayer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	cause := errors.New("connection refused")

	tests := []struct {
		err  error
		want string
	}{
		{NewMessageNotFoundError(id), "message not found: 6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{NewChainAdapterError(cause), "chain adapter error: connection refused"},
		{NewProverError("bad witness"), "prover error: bad witness"},
		{NewConfigurationError("service already running"), "configuration error: service already running"},
		{NewQueueError("full"), "queue error: full"},
		{NewValidationError(ReasonEmptyPayload), "message validation error: Payload is empty"},
		{NewTimeoutError("submit_message", 30), "timeout waiting for submit_message after 30 seconds"},
		{WrapError("decode event", cause), "unknown error: decode event: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestErrorKindMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("watch chain: %w", NewChainAdapterError(cause))

	require.ErrorIs(t, err, ErrChainAdapterKind)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrConfigurationKind)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrChainAdapter, rerr.Kind)

	timeout := NewTimeoutError("verify_proof", 5)
	require.ErrorIs(t, timeout, ErrTimeoutKind)
	require.ErrorAs(t, timeout, &rerr)
	require.Equal(t, "verify_proof", rerr.Operation)
	require.Equal(t, uint64(5), rerr.Seconds)
}

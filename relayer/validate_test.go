package relayer

import (
	"testing"

	"github.com/frostgate/relayer/relayer/provider"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name       string
		msg        provider.Message
		wantReason string
	}{
		{
			name:       "unknown source chain",
			msg:        provider.Message{FromChain: provider.ChainIDUnknown, ToChain: "frost-2", Payload: []byte{1}},
			wantReason: ReasonUnknownSourceChain,
		},
		{
			name:       "unknown target chain",
			msg:        provider.Message{FromChain: "frost-1", ToChain: provider.ChainIDUnknown, Payload: []byte{1}},
			wantReason: ReasonUnknownTargetChain,
		},
		{
			name:       "empty payload",
			msg:        provider.Message{FromChain: "frost-1", ToChain: "frost-2", Payload: []byte{}},
			wantReason: ReasonEmptyPayload,
		},
		{
			name: "valid",
			msg:  provider.Message{FromChain: "frost-1", ToChain: "frost-2", Payload: []byte{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)
			if tt.wantReason == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrValidationKind)
			require.Equal(t, tt.wantReason, validationReason(err))
			require.Contains(t, err.Error(), tt.wantReason)
		})
	}
}

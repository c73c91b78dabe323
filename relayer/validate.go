package relayer

import "github.com/frostgate/relayer/relayer/provider"

// Validation failure descriptions.
const (
	ReasonUnknownSourceChain = "Source chain is unknown"
	ReasonUnknownTargetChain = "Target chain is unknown"
	ReasonEmptyPayload       = "Payload is empty"
)

// ValidateMessage performs the structural checks a message must pass before it is queued.
func ValidateMessage(msg provider.Message) error {
	if msg.FromChain == provider.ChainIDUnknown {
		return NewValidationError(ReasonUnknownSourceChain)
	}
	if msg.ToChain == provider.ChainIDUnknown {
		return NewValidationError(ReasonUnknownTargetChain)
	}
	if len(msg.Payload) == 0 {
		return NewValidationError(ReasonEmptyPayload)
	}
	return nil
}

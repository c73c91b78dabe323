package relayer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies relayer errors.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrMessageNotFound
	ErrChainAdapter
	ErrProver
	ErrConfiguration
	ErrQueue
	ErrValidation
	ErrTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMessageNotFound:
		return "message not found"
	case ErrChainAdapter:
		return "chain adapter error"
	case ErrProver:
		return "prover error"
	case ErrConfiguration:
		return "configuration error"
	case ErrQueue:
		return "queue error"
	case ErrValidation:
		return "message validation error"
	case ErrTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by the relayer core.
type Error struct {
	Kind ErrorKind
	Msg  string

	// Operation and Seconds are only set for ErrTimeout.
	Operation string
	Seconds   uint64

	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ErrTimeout:
		return fmt.Sprintf("timeout waiting for %s after %d seconds", e.Operation, e.Seconds)
	case e.Kind == ErrChainAdapter && e.Err != nil && e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, relayer.ErrConfigurationKind) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrMessageNotFoundKind = &Error{Kind: ErrMessageNotFound}
	ErrChainAdapterKind    = &Error{Kind: ErrChainAdapter}
	ErrProverKind          = &Error{Kind: ErrProver}
	ErrConfigurationKind   = &Error{Kind: ErrConfiguration}
	ErrQueueKind           = &Error{Kind: ErrQueue}
	ErrValidationKind      = &Error{Kind: ErrValidation}
	ErrTimeoutKind         = &Error{Kind: ErrTimeout}
	ErrUnknownKind         = &Error{Kind: ErrUnknown}
)

func NewMessageNotFoundError(id uuid.UUID) error {
	return &Error{Kind: ErrMessageNotFound, Msg: id.String()}
}

func NewChainAdapterError(err error) error {
	return &Error{Kind: ErrChainAdapter, Err: err}
}

func NewProverError(msg string) error {
	return &Error{Kind: ErrProver, Msg: msg}
}

func NewConfigurationError(msg string) error {
	return &Error{Kind: ErrConfiguration, Msg: msg}
}

func NewQueueError(msg string) error {
	return &Error{Kind: ErrQueue, Msg: msg}
}

func NewValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func NewTimeoutError(operation string, seconds uint64) error {
	return &Error{Kind: ErrTimeout, Operation: operation, Seconds: seconds}
}

// WrapError wraps an arbitrary cause as a catch-all relayer error.
func WrapError(msg string, err error) error {
	return &Error{Kind: ErrUnknown, Msg: msg, Err: err}
}

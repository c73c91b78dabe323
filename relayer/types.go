package relayer

import (
	"fmt"
	"time"

	"github.com/frostgate/relayer/relayer/provider"
	"github.com/google/uuid"
)

// StatusKind enumerates the lifecycle states of a queued message.
type StatusKind int

const (
	// Pending messages have been received and wait for processing.
	Pending StatusKind = iota
	// Proving messages are having their proof verified on the source chain.
	Proving
	// ReadyForSubmission messages have been proven and are about to be submitted.
	ReadyForSubmission
	// Submitted messages have been accepted by the destination chain.
	Submitted
	// Finalized messages are final on the destination chain.
	Finalized
	// Failed messages hit an error during processing; see MessageStatus.Reason.
	Failed
)

var statusKindNames = map[StatusKind]string{
	Pending:            "pending",
	Proving:            "proving",
	ReadyForSubmission: "ready_for_submission",
	Submitted:          "submitted",
	Finalized:          "finalized",
	Failed:             "failed",
}

func (k StatusKind) String() string {
	if s, ok := statusKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("status(%d)", int(k))
}

// Failure reasons recorded by the message processor.
const (
	ReasonMaxRetriesExceeded = "Max retry attempts exceeded"
	ReasonProofVerification  = "Proof verification failed"
	ReasonDestinationSubmit  = "Destination chain submission failed"
)

// MessageStatus is the current lifecycle state of a QueuedMessage.
// Reason is only set for Failed.
type MessageStatus struct {
	Kind   StatusKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

var (
	StatusPending            = MessageStatus{Kind: Pending}
	StatusProving            = MessageStatus{Kind: Proving}
	StatusReadyForSubmission = MessageStatus{Kind: ReadyForSubmission}
	StatusSubmitted          = MessageStatus{Kind: Submitted}
	StatusFinalized          = MessageStatus{Kind: Finalized}
)

// StatusFailed returns the Failed status with the given reason.
func StatusFailed(reason string) MessageStatus {
	return MessageStatus{Kind: Failed, Reason: reason}
}

// IsFailed reports whether s is a Failed status, regardless of reason.
func (s MessageStatus) IsFailed() bool {
	return s.Kind == Failed
}

// IsTerminal reports whether the message is done as far as the queue is concerned.
func (s MessageStatus) IsTerminal() bool {
	switch s.Kind {
	case Submitted, Finalized, Failed:
		return true
	}
	return false
}

// InFlight reports whether the message may still be worked on and so must not be pruned.
func (s MessageStatus) InFlight() bool {
	return s.Kind == Pending || s.Kind == Proving
}

func (s MessageStatus) String() string {
	if s.Kind == Failed {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Reason)
	}
	return s.Kind.String()
}

// QueuedMessage is a tracked relay attempt.
type QueuedMessage struct {
	ID        uuid.UUID        `json:"id"`
	Message   provider.Message `json:"message"`
	Status    MessageStatus    `json:"status"`
	QueuedAt  time.Time        `json:"queued_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Attempts  uint32           `json:"attempts"`

	// LastError is the most recent failure description, empty if absent.
	LastError string `json:"last_error,omitempty"`
}

// NewQueuedMessage wraps msg in a fresh Pending record with a new unique ID.
func NewQueuedMessage(msg provider.Message, now time.Time) QueuedMessage {
	return QueuedMessage{
		ID:        uuid.New(),
		Message:   msg.Clone(),
		Status:    StatusPending,
		QueuedAt:  now,
		UpdatedAt: now,
	}
}

// clone returns a deep copy of qm.
func (qm QueuedMessage) clone() QueuedMessage {
	c := qm
	c.Message = qm.Message.Clone()
	return c
}

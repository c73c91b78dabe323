package provider

import (
	"bytes"
	"context"
	"fmt"
)

// ChainID identifies a ledger that messages are relayed from or to.
type ChainID string

// ChainIDUnknown is the sentinel reported by adapters that could not
// resolve the chain a message belongs to.
const ChainIDUnknown ChainID = "unknown"

func (c ChainID) String() string {
	return string(c)
}

// Message is the opaque cross-chain payload carried by the relayer.
// A nil Proof means the message carries no proof.
type Message struct {
	FromChain ChainID `json:"from_chain" yaml:"from-chain"`
	ToChain   ChainID `json:"to_chain" yaml:"to-chain"`
	Nonce     uint64  `json:"nonce" yaml:"nonce"`
	Payload   []byte  `json:"payload" yaml:"payload"`
	Proof     []byte  `json:"proof,omitempty" yaml:"proof,omitempty"`
}

// HasProof reports whether the message carries a proof that must be verified
// before submission.
func (m Message) HasProof() bool {
	return m.Proof != nil
}

// Clone returns a deep copy of m so that callers cannot mutate byte slices
// shared with a queued record.
func (m Message) Clone() Message {
	c := m
	// bytes.Clone keeps a non-nil empty proof non-nil, so it is still verified.
	c.Payload = bytes.Clone(m.Payload)
	c.Proof = bytes.Clone(m.Proof)
	return c
}

func (m Message) String() string {
	return fmt.Sprintf("%s->%s#%d", m.FromChain, m.ToChain, m.Nonce)
}

// MessageEvent is a message observed on a source chain.
type MessageEvent struct {
	Message     Message
	BlockHeight uint64
	TxHash      string
}

// SubmissionReceipt is returned by the destination chain once a message has been submitted.
type SubmissionReceipt struct {
	TxHash      string
	BlockHeight uint64
}

// ChainAdapter is the capability the relayer needs from a single chain.
// One instance is bound to the source chain and another to the destination chain.
//
// Implementations should obey ctx and return upon context cancellation.
// The relayer treats every returned error as opaque and only formats it.
type ChainAdapter interface {
	// ChainID returns the chain this adapter is bound to.
	ChainID() ChainID

	// ListenForEvents returns the message events observed since the previous call.
	ListenForEvents(ctx context.Context) ([]MessageEvent, error)

	// VerifyProof checks the proof attached to msg against this chain's state.
	VerifyProof(ctx context.Context, msg Message) error

	// SubmitMessage delivers msg to this chain.
	SubmitMessage(ctx context.Context, msg Message) (SubmissionReceipt, error)
}

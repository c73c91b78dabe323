package mock

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/frostgate/relayer/relayer/provider"
)

// ErrMockFailure is returned by the failure injectors in this package.
var ErrMockFailure = errors.New("mock chain failure")

// SequenceGenerator produces perPoll messages from src to dst on every call,
// with consecutive nonces.
type SequenceGenerator struct {
	src, dst  provider.ChainID
	perPoll   int
	withProof bool

	mu    sync.Mutex
	nonce uint64
}

func NewSequenceGenerator(src, dst provider.ChainID, perPoll int, withProof bool) *SequenceGenerator {
	return &SequenceGenerator{
		src:       src,
		dst:       dst,
		perPoll:   perPoll,
		withProof: withProof,
	}
}

// Events is suitable for WithEvents.
func (g *SequenceGenerator) Events() []provider.MessageEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	events := make([]provider.MessageEvent, 0, g.perPoll)
	for i := 0; i < g.perPoll; i++ {
		g.nonce++
		msg := provider.Message{
			FromChain: g.src,
			ToChain:   g.dst,
			Nonce:     g.nonce,
			Payload:   []byte(fmt.Sprintf("mock-payload-%d", g.nonce)),
		}
		if g.withProof {
			msg.Proof = []byte(fmt.Sprintf("mock-proof-%d", g.nonce))
		}
		events = append(events, provider.MessageEvent{Message: msg})
	}
	return events
}

// RandomVerifyFailure returns a proof verifier that fails with probability rate.
func RandomVerifyFailure(rate float64) func(provider.Message) error {
	return func(msg provider.Message) error {
		if rand.Float64() < rate {
			return fmt.Errorf("verify proof for nonce %d: %w", msg.Nonce, ErrMockFailure)
		}
		return nil
	}
}

// RandomSubmitFailure returns a submitter that fails with probability rate.
func RandomSubmitFailure(rate float64) func(provider.Message) (provider.SubmissionReceipt, error) {
	return func(msg provider.Message) (provider.SubmissionReceipt, error) {
		if rand.Float64() < rate {
			return provider.SubmissionReceipt{}, fmt.Errorf("submit nonce %d: %w", msg.Nonce, ErrMockFailure)
		}
		return provider.SubmissionReceipt{}, nil
	}
}

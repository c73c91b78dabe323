package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/frostgate/relayer/relayer/provider"
	"go.uber.org/zap"
)

// MockChainAdapter is an in-process provider.ChainAdapter.
// Events are produced by getMockEvents, and the outcome of proof verification
// and submission can be swapped out to simulate chain failures.
type MockChainAdapter struct {
	log *zap.Logger

	chainID provider.ChainID

	getMockEvents func() []provider.MessageEvent
	verifyProof   func(provider.Message) error
	submitMessage func(provider.Message) (provider.SubmissionReceipt, error)

	mu           sync.Mutex
	latestHeight uint64
	listenCalls  int
	verifyCalls  int
	submitted    []provider.Message
}

var _ provider.ChainAdapter = (*MockChainAdapter)(nil)

// Option configures a MockChainAdapter.
type Option func(*MockChainAdapter)

// WithEvents sets the source of events returned by ListenForEvents.
func WithEvents(getMockEvents func() []provider.MessageEvent) Option {
	return func(mca *MockChainAdapter) {
		mca.getMockEvents = getMockEvents
	}
}

// WithVerifyProof overrides the result of VerifyProof.
func WithVerifyProof(verify func(provider.Message) error) Option {
	return func(mca *MockChainAdapter) {
		mca.verifyProof = verify
	}
}

// WithSubmitMessage overrides the result of SubmitMessage.
// Messages are only recorded as submitted when submit returns no error.
func WithSubmitMessage(submit func(provider.Message) (provider.SubmissionReceipt, error)) Option {
	return func(mca *MockChainAdapter) {
		mca.submitMessage = submit
	}
}

func NewMockChainAdapter(log *zap.Logger, chainID provider.ChainID, opts ...Option) *MockChainAdapter {
	mca := &MockChainAdapter{
		log:     log.With(zap.String("chain_id", string(chainID))),
		chainID: chainID,
	}
	for _, opt := range opts {
		opt(mca)
	}
	return mca
}

func (mca *MockChainAdapter) ChainID() provider.ChainID {
	return mca.chainID
}

func (mca *MockChainAdapter) ListenForEvents(ctx context.Context) ([]provider.MessageEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mca.mu.Lock()
	mca.listenCalls++
	// would be query of latest height
	mca.latestHeight++
	height := mca.latestHeight
	mca.mu.Unlock()

	if mca.getMockEvents == nil {
		return nil, nil
	}

	events := mca.getMockEvents()
	for i := range events {
		if events[i].BlockHeight == 0 {
			events[i].BlockHeight = height
		}
		if events[i].TxHash == "" {
			events[i].TxHash = mockTxHash(events[i].Message, height)
		}
	}

	mca.log.Debug("queried mock events",
		zap.Uint64("latest_height", height),
		zap.Int("count", len(events)),
	)
	return events, nil
}

func (mca *MockChainAdapter) VerifyProof(ctx context.Context, msg provider.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mca.mu.Lock()
	mca.verifyCalls++
	mca.mu.Unlock()

	if mca.verifyProof != nil {
		return mca.verifyProof(msg)
	}
	return nil
}

func (mca *MockChainAdapter) SubmitMessage(ctx context.Context, msg provider.Message) (provider.SubmissionReceipt, error) {
	if err := ctx.Err(); err != nil {
		return provider.SubmissionReceipt{}, err
	}

	var (
		receipt provider.SubmissionReceipt
		err     error
	)
	if mca.submitMessage != nil {
		receipt, err = mca.submitMessage(msg)
		if err != nil {
			return provider.SubmissionReceipt{}, err
		}
	}

	mca.mu.Lock()
	defer mca.mu.Unlock()

	mca.latestHeight++
	if receipt.BlockHeight == 0 {
		receipt.BlockHeight = mca.latestHeight
	}
	if receipt.TxHash == "" {
		receipt.TxHash = mockTxHash(msg, receipt.BlockHeight)
	}
	mca.submitted = append(mca.submitted, msg.Clone())

	return receipt, nil
}

// Submitted returns copies of the messages successfully submitted to this chain.
func (mca *MockChainAdapter) Submitted() []provider.Message {
	mca.mu.Lock()
	defer mca.mu.Unlock()

	out := make([]provider.Message, len(mca.submitted))
	for i, m := range mca.submitted {
		out[i] = m.Clone()
	}
	return out
}

// ListenCalls returns the number of ListenForEvents calls made so far.
func (mca *MockChainAdapter) ListenCalls() int {
	mca.mu.Lock()
	defer mca.mu.Unlock()
	return mca.listenCalls
}

// VerifyCalls returns the number of VerifyProof calls made so far.
func (mca *MockChainAdapter) VerifyCalls() int {
	mca.mu.Lock()
	defer mca.mu.Unlock()
	return mca.verifyCalls
}

func mockTxHash(msg provider.Message, height uint64) string {
	h := sha256.New()
	h.Write([]byte(msg.FromChain))
	h.Write([]byte(msg.ToChain))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], msg.Nonce)
	binary.BigEndian.PutUint64(buf[8:], height)
	h.Write(buf[:])
	h.Write(msg.Payload)
	return hex.EncodeToString(h.Sum(nil))
}

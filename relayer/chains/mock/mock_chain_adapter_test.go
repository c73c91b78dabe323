package mock_test

import (
	"context"
	"testing"

	"github.com/frostgate/relayer/relayer/chains/mock"
	"github.com/frostgate/relayer/relayer/provider"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMockChainAdapterEvents(t *testing.T) {
	log := zaptest.NewLogger(t)
	gen := mock.NewSequenceGenerator("mock-chain-1", "mock-chain-2", 3, true)
	mca := mock.NewMockChainAdapter(log, "mock-chain-1", mock.WithEvents(gen.Events))

	ctx := context.Background()

	first, err := mca.ListenForEvents(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := mca.ListenForEvents(ctx)
	require.NoError(t, err)
	require.Len(t, second, 3)

	for i, ev := range append(first, second...) {
		require.Equal(t, uint64(i+1), ev.Message.Nonce)
		require.Equal(t, provider.ChainID("mock-chain-1"), ev.Message.FromChain)
		require.Equal(t, provider.ChainID("mock-chain-2"), ev.Message.ToChain)
		require.NotEmpty(t, ev.Message.Payload)
		require.True(t, ev.Message.HasProof())
		require.NotEmpty(t, ev.TxHash)
	}
	require.Equal(t, uint64(1), first[0].BlockHeight)
	require.Equal(t, uint64(2), second[0].BlockHeight)
	require.Equal(t, 2, mca.ListenCalls())
}

func TestMockChainAdapterWithoutEvents(t *testing.T) {
	mca := mock.NewMockChainAdapter(zaptest.NewLogger(t), "mock-chain-1")

	events, err := mca.ListenForEvents(context.Background())
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestMockChainAdapterSubmit(t *testing.T) {
	mca := mock.NewMockChainAdapter(zaptest.NewLogger(t), "mock-chain-2")
	msg := provider.Message{FromChain: "mock-chain-1", ToChain: "mock-chain-2", Nonce: 9, Payload: []byte("hi")}

	receipt, err := mca.SubmitMessage(context.Background(), msg)
	require.NoError(t, err)
	require.NotEmpty(t, receipt.TxHash)
	require.Equal(t, uint64(1), receipt.BlockHeight)
	require.Equal(t, []provider.Message{msg}, mca.Submitted())
}

func TestMockChainAdapterInjectedFailures(t *testing.T) {
	mca := mock.NewMockChainAdapter(
		zaptest.NewLogger(t),
		"mock-chain-1",
		mock.WithVerifyProof(mock.RandomVerifyFailure(1)),
		mock.WithSubmitMessage(mock.RandomSubmitFailure(1)),
	)
	msg := provider.Message{FromChain: "mock-chain-1", ToChain: "mock-chain-2", Payload: []byte{1}, Proof: []byte{2}}

	require.ErrorIs(t, mca.VerifyProof(context.Background(), msg), mock.ErrMockFailure)
	require.Equal(t, 1, mca.VerifyCalls())

	_, err := mca.SubmitMessage(context.Background(), msg)
	require.ErrorIs(t, err, mock.ErrMockFailure)
	require.Empty(t, mca.Submitted())

	neverFails := mock.NewMockChainAdapter(
		zaptest.NewLogger(t),
		"mock-chain-1",
		mock.WithVerifyProof(mock.RandomVerifyFailure(0)),
	)
	require.NoError(t, neverFails.VerifyProof(context.Background(), msg))
}

func TestMockChainAdapterObeysContext(t *testing.T) {
	mca := mock.NewMockChainAdapter(zaptest.NewLogger(t), "mock-chain-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mca.ListenForEvents(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, mca.VerifyProof(ctx, provider.Message{}), context.Canceled)
	_, err = mca.SubmitMessage(ctx, provider.Message{})
	require.ErrorIs(t, err, context.Canceled)
}

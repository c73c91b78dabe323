package relayermetrics_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frostgate/relayer/internal/relayermetrics"
	"github.com/frostgate/relayer/relayer"
	"github.com/frostgate/relayer/relayer/provider"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMetricsHandler(t *testing.T) {
	q := relayer.NewMessageQueue()
	for nonce := uint64(1); nonce <= 3; nonce++ {
		q.Enqueue(relayer.NewQueuedMessage(provider.Message{
			FromChain: "mock-chain-1",
			ToChain:   "mock-chain-2",
			Nonce:     nonce,
			Payload:   []byte("payload"),
		}, time.Now()))
	}
	msg, ok := q.Dequeue()
	require.True(t, ok)
	q.UpdateStatus(msg.ID, relayer.StatusSubmitted, "")

	metrics := relayer.NewPrometheusMetrics()
	metrics.IncMessagesRelayed("mock-chain-1", "mock-chain-2")

	srv := httptest.NewServer(relayermetrics.NewHandler(zaptest.NewLogger(t), metrics, q))
	t.Cleanup(srv.Close)

	get := func(t *testing.T, path string) string {
		t.Helper()
		res, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return string(body)
	}

	t.Run("relay metrics", func(t *testing.T) {
		body := get(t, "/relayer/metrics")
		require.Contains(t, body, "frostgate_relayer_relayed_messages")
		require.NotContains(t, body, "go_goroutines")
	})

	t.Run("all metrics", func(t *testing.T) {
		body := get(t, "/metrics")
		require.Contains(t, body, "frostgate_relayer_relayed_messages")
		require.Contains(t, body, "go_goroutines")
	})

	t.Run("queue counts", func(t *testing.T) {
		var counts map[string]int
		require.NoError(t, json.Unmarshal([]byte(get(t, "/relayer/queue")), &counts))
		require.Equal(t, map[string]int{"pending": 2, "submitted": 1}, counts)
	})
}

package relaydebug_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frostgate/relayer/internal/relaydebug"
	"github.com/frostgate/relayer/relayer"
	"github.com/frostgate/relayer/relayer/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMessageEndpoints(t *testing.T) {
	q := relayer.NewMessageQueue()
	qm := relayer.NewQueuedMessage(provider.Message{
		FromChain: "mock-chain-1",
		ToChain:   "mock-chain-2",
		Nonce:     7,
		Payload:   []byte("payload"),
	}, time.Now())
	q.Enqueue(qm)

	metrics := relayer.NewPrometheusMetrics()
	metrics.IncMessagesEnqueued("mock-chain-1", "mock-chain-2")

	srv := httptest.NewServer(relaydebug.NewHandler(zaptest.NewLogger(t), q, metrics.Registry))
	t.Cleanup(srv.Close)

	t.Run("list", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/relayer/messages")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var msgs []relayer.QueuedMessage
		require.NoError(t, json.NewDecoder(res.Body).Decode(&msgs))
		require.Len(t, msgs, 1)
		require.Equal(t, qm.ID, msgs[0].ID)
		require.Equal(t, uint64(7), msgs[0].Message.Nonce)
	})

	t.Run("get", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/relayer/messages/" + qm.ID.String())
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var msg relayer.QueuedMessage
		require.NoError(t, json.NewDecoder(res.Body).Decode(&msg))
		require.Equal(t, qm.ID, msg.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/relayer/messages/" + uuid.NewString())
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/relayer/messages/not-a-uuid")
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		res, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestMessageEndpointsDisabledWithoutLookup(t *testing.T) {
	srv := httptest.NewServer(relaydebug.NewHandler(zaptest.NewLogger(t), nil, nil))
	t.Cleanup(srv.Close)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := client.Get(srv.URL + "/relayer/messages")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode, "falls through to the pprof redirect")
}

// Package relayermetrics serves the relay's Prometheus registry and a
// per-status summary of the message queue over HTTP.
package relayermetrics

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/frostgate/relayer/relayer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsServerPort is the port the metrics server listens on by default.
const MetricsServerPort = 5184

// StatusCounter reports how many queued messages are in each status.
// *relayer.MessageQueue satisfies it.
type StatusCounter interface {
	CountByStatus() map[relayer.StatusKind]int
}

// StartMetricsServer serves NewHandler on ln until ctx finishes,
// at which point the server is closed without draining connections.
func StartMetricsServer(ctx context.Context, log *zap.Logger, ln net.Listener, metrics *relayer.PrometheusMetrics, queue StatusCounter) {
	srv := &http.Server{
		Handler:  NewHandler(log, metrics, queue),
		ErrorLog: zap.NewStdLog(log),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go srv.Serve(ln)

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
}

// NewHandler returns the mux served by StartMetricsServer.
//
//	/metrics          relay counters plus Go process and runtime collectors
//	/relayer/metrics  relay counters only
//	/relayer/queue    message counts keyed by status name
func NewHandler(log *zap.Logger, metrics *relayer.PrometheusMetrics, queue StatusCounter) http.Handler {
	mux := http.NewServeMux()

	opts := promhttp.HandlerOpts{ErrorLog: zap.NewStdLog(log)}
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, metrics.Registry},
		opts,
	))
	mux.Handle("/relayer/metrics", promhttp.HandlerFor(metrics.Registry, opts))

	if queue != nil {
		mux.HandleFunc("GET /relayer/queue", func(w http.ResponseWriter, r *http.Request) {
			counts := make(map[string]int)
			for kind, n := range queue.CountByStatus() {
				counts[kind.String()] = n
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(counts); err != nil {
				log.Debug("Failed to write queue counts", zap.Error(err))
			}
		})
	}

	return mux
}

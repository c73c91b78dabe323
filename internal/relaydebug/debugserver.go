package relaydebug

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/frostgate/relayer/relayer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DebugServerPort is the port the debug server listens on by default.
const DebugServerPort = 5183

// MessageLookup is the read-only view of the relay queue served by the debug server.
type MessageLookup interface {
	Snapshot() []relayer.QueuedMessage
	Get(id uuid.UUID) (relayer.QueuedMessage, bool)
}

// StartDebugServer starts a debug server in a background goroutine,
// accepting connections on the given listener.
// Any HTTP logging will be written at info level to the given logger.
// The server will be forcefully shut down when ctx finishes.
//
// If msgs is nil the /relayer/messages endpoints are not registered.
// If gatherer is nil only the default prometheus registry is served.
func StartDebugServer(
	ctx context.Context,
	log *zap.Logger,
	ln net.Listener,
	msgs MessageLookup,
	gatherer prometheus.Gatherer,
) {
	srv := &http.Server{
		Handler:  NewHandler(log, msgs, gatherer),
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

// NewHandler returns the mux served by StartDebugServer.
func NewHandler(log *zap.Logger, msgs MessageLookup, gatherer prometheus.Gatherer) http.Handler {
	// Set up new mux identical to the default mux configuration in net/http/pprof.
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// And redirect the browser to the /debug/pprof root,
	// so operators don't see a mysterious 404 page.
	mux.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))

	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	if gatherer != nil {
		gatherers = append(gatherers, gatherer)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	mux.HandleFunc("/relayer/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(log, w, map[string]string{"commit": BuildCommit()})
	})

	if msgs != nil {
		mux.HandleFunc("GET /relayer/messages", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(log, w, msgs.Snapshot())
		})
		mux.HandleFunc("GET /relayer/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.PathValue("id"))
			if err != nil {
				http.Error(w, "invalid message id: "+err.Error(), http.StatusBadRequest)
				return
			}
			msg, ok := msgs.Get(id)
			if !ok {
				http.Error(w, relayer.NewMessageNotFoundError(id).Error(), http.StatusNotFound)
				return
			}
			writeJSON(log, w, msg)
		})
	}

	return mux
}

func writeJSON(log *zap.Logger, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info("Failed to write debug response", zap.Error(err))
	}
}

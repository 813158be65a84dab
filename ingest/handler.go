package ingest

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner performs one invocation.
type Runner interface {
	Run(ctx context.Context) Result
}

// Handler exposes invocations over HTTP. Invocations are serialised so that two
// requests never write to the destination table at the same time.
type Handler struct {
	logger log.Logger
	runner Runner
	mu     sync.Mutex
}

func NewHandler(logger log.Logger, runner Runner) *Handler {
	return &Handler{logger: logger, runner: runner}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	level.Info(h.logger).Log("msg", "invocation received", "method", r.Method, "remote", r.RemoteAddr)
	result := h.runner.Run(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(result.StatusCode())
	if _, err := w.Write([]byte(result.Message())); err != nil {
		level.Warn(h.logger).Log("msg", "failed writing response", "err", err)
	}
}

// NewRouter serves invocations on "/" together with metrics and a health check.
func NewRouter(handler http.Handler, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/", handler).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/-/healthy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	return router
}

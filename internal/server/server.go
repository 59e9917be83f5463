package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/thornav/decoy/internal/registry"
	"github.com/thornav/decoy/internal/tracing"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decoy_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "status"},
	)
	httpRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decoy_http_request_latency_seconds",
			Help:    "Latency of HTTP requests served",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Options configures the dispatcher.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:3000".
	Addr string
	// Metrics exposes prometheus metrics on /metrics when true.
	Metrics bool
	// VerboseNotFound answers misses with a descriptive JSON body
	// instead of an empty 404.
	VerboseNotFound bool
}

// Server is the request dispatcher: the backend execution context that
// answers every inbound request from the shared endpoint store. It
// holds only read access to the store; all mutation happens in the
// foreground control loop.
type Server struct {
	opts  Options
	store *registry.Store
	log   *zap.Logger
	ln    net.Listener
	srv   *http.Server
}

// New creates a dispatcher serving the given store. The logger is the
// relay-backed handle; handlers never write to the terminal directly.
func New(opts Options, store *registry.Store, logger *zap.Logger) *Server {
	s := &Server{opts: opts, store: store, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	if opts.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/", s.handleMock)
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Listen binds the listen address. Called before the foreground loop
// starts so a bind failure aborts the process while the terminal is
// still in its normal state.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr reports the bound address; valid after Listen.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.opts.Addr
	}
	return s.ln.Addr().String()
}

// Serve blocks serving requests on the listener acquired by Listen.
// Run it on its own goroutine; it returns http.ErrServerClosed after
// Close.
func (s *Server) Serve() error {
	s.log.Info("http_server_start", zap.String("listen_addr", s.Addr()))
	return s.srv.Serve(s.ln)
}

// Close tears the listener down. In-flight requests are not drained;
// process exit is the cancellation mechanism.
func (s *Server) Close() error {
	err := s.srv.Close()
	if s.ln != nil {
		// No-op when Serve already adopted (and closed) the listener.
		_ = s.ln.Close()
	}
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// handleMock answers any method on any path from the store: 200 with
// the stored body on a hit, 404 on a miss. No per-request state
// survives the response.
func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "http_request")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.url", r.URL.String()),
	)
	r = r.WithContext(ctx)

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	body, ok := s.store.Lookup(r.Method, r.URL.Path)
	if ok {
		rec.Header().Set("Content-Type", contentType(body))
		_, _ = rec.Write(body)
	} else {
		s.writeNotFound(rec, r.URL.Path)
	}

	latency := time.Since(start)
	span.SetAttributes(
		attribute.Int("http.status_code", rec.status),
		attribute.Int64("http.response.size", int64(rec.size)),
	)
	if rec.status >= 400 {
		span.SetStatus(codes.Error, http.StatusText(rec.status))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Int64("latency_us", latency.Microseconds()),
		zap.Int("size_bytes", rec.size),
	}
	if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	s.log.Info("http_request", fields...)

	httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	httpRequestLatency.WithLabelValues(r.Method).Observe(latency.Seconds())
}

func (s *Server) writeNotFound(w http.ResponseWriter, path string) {
	if !s.opts.VerboseNotFound {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	msg, _ := json.Marshal(map[string]string{"error": "not found", "path": path})
	_, _ = w.Write(msg)
}

// contentType infers a JSON content type for bodies that parse as JSON
// and falls back to plain text otherwise.
func contentType(body []byte) string {
	if json.Valid(body) {
		return "application/json; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Package server exposes misspelling generation and the lexicon over HTTP.
//
// Routes:
//
//	GET /v1/misspellings?word=&strategy=     generate candidates for word
//	GET /v1/lexicon/{word}?strategy=         stored entry for word
//	GET /v1/lexicon/reverse/{misspelling}    words a misspelling may stand for
//	GET /healthz, /readyz                    probes
//	GET /metrics                             Prometheus scrape endpoint
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/soundalike/internal/health"
	"github.com/MrWong99/soundalike/internal/lexicon"
	"github.com/MrWong99/soundalike/internal/misspell"
	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/internal/oracle"
)

// shutdownTimeout bounds graceful shutdown once the run context ends.
const shutdownTimeout = 15 * time.Second

// Generator is the part of [*misspell.Generator] the server needs.
type Generator interface {
	Strategy() misspell.Strategy
	GenerateWith(ctx context.Context, word string, strategy misspell.Strategy) (*misspell.Result, error)
}

// genBox lets an interface value live behind an atomic.Pointer.
type genBox struct{ Generator }

// Server is the HTTP API. The generator may be swapped at runtime with
// [Server.SetGenerator]; in-flight requests finish on the old one.
type Server struct {
	gen      atomic.Pointer[genBox]
	store    lexicon.Store
	resolver *lexicon.Resolver
	health   *health.Handler
	metrics  *observe.Metrics
	scrape   http.Handler
	save     bool
}

// Option configures a [Server].
type Option func(*Server)

// WithLexicon sets the lexicon used by the /v1/lexicon routes. Default: an
// empty [lexicon.MemStore].
func WithLexicon(s lexicon.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithSaveResults stores every successful generation in the lexicon.
func WithSaveResults(save bool) Option {
	return func(srv *Server) { srv.save = save }
}

// WithHealthCheckers adds readiness checks to /readyz.
func WithHealthCheckers(checkers ...Checker) Option {
	return func(srv *Server) { srv.health = health.New(checkers...) }
}

// Checker is re-exported so callers need not import health for options.
type Checker = health.Checker

// WithMetrics sets the metrics used by the request middleware.
// Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// WithMetricsHandler sets the handler behind GET /metrics.
// Default: promhttp.Handler over the default registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(srv *Server) { srv.scrape = h }
}

// New returns a Server generating with gen.
func New(gen Generator, opts ...Option) *Server {
	s := &Server{}
	s.gen.Store(&genBox{gen})
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = lexicon.NewMemStore()
	}
	if s.health == nil {
		s.health = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.scrape == nil {
		s.scrape = promhttp.Handler()
	}
	s.resolver = lexicon.NewResolver(s.store, nil)
	return s
}

// SetGenerator replaces the generator used by later requests.
func (s *Server) SetGenerator(gen Generator) {
	s.gen.Store(&genBox{gen})
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/misspellings", s.handleGenerate)
	mux.HandleFunc("GET /v1/lexicon/{word}", s.handleEntry)
	mux.HandleFunc("GET /v1/lexicon/reverse/{misspelling}", s.handleReverse)
	s.health.Register(mux)
	mux.Handle("GET /metrics", s.scrape)
	return observe.Middleware(s.metrics, observe.WithQuietPaths("/healthz", "/readyz", "/metrics"))(mux)
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()
	slog.Info("http api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	gen := s.gen.Load().Generator
	word := r.URL.Query().Get("word")

	strategy, err := s.strategy(gen, r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := gen.GenerateWith(r.Context(), word, strategy)
	if err != nil {
		observe.Logger(r.Context()).Warn("server: generate failed", "word", word, "strategy", strategy, "err", err)
		writeError(w, statusFor(err), err)
		return
	}

	if s.save {
		if err := s.store.Save(r.Context(), lexicon.EntryFromResult(res)); err != nil {
			observe.Logger(r.Context()).Error("server: save to lexicon", "word", res.Word, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	strategy, err := s.strategy(s.gen.Load().Generator, r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.store.Get(r.Context(), r.PathValue("word"), strategy)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type reverseResponse struct {
	Input   string          `json:"input"`
	Matches []lexicon.Match `json:"matches"`
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	input := r.PathValue("misspelling")
	matches, err := s.resolver.Resolve(r.Context(), input)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if matches == nil {
		matches = []lexicon.Match{}
	}
	writeJSON(w, http.StatusOK, reverseResponse{Input: input, Matches: matches})
}

// strategy parses raw, falling back to the generator's default when empty.
func (s *Server) strategy(gen Generator, raw string) (misspell.Strategy, error) {
	if raw == "" {
		return gen.Strategy(), nil
	}
	return misspell.ParseStrategy(raw)
}

// statusFor maps pipeline and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, misspell.ErrInvalidWord):
		return http.StatusBadRequest
	case errors.Is(err, misspell.ErrEmptySyllabification), errors.Is(err, misspell.ErrSegmentation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, misspell.ErrTooManyCandidates):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, oracle.ErrOracle):
		return http.StatusBadGateway
	case errors.Is(err, lexicon.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string      `json:"error"`
	Kind  oracle.Kind `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: oracle.KindOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

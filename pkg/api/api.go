// Package api serves scoring and the ledger over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /problems/{id}             problem summary
//	POST /problems/{id}/score       judge a solution (body: solution JSON)
//	GET  /ledger                    every best score and their total
//	GET  /ledger/{id}               best score of one problem
//
// POST /problems/{id}/score accepts ?variant=v1|v2 to override the variant
// implied by the id. Errors are JSON objects with "error" and "code".
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/encore/pkg/buildinfo"
	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/ledger"
	"github.com/matzehuels/encore/pkg/observability"
	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
)

// Options configures the server.
type Options struct {
	// RequestTimeout bounds each request. Zero disables the limit.
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies. Zero means 64 MiB.
	MaxBodyBytes int64
}

// Server handles API requests.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
}

// New returns a server backed by runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 20
	}
	return &Server{runner: runner, logger: runner.Logger, opts: opts}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/problems/{id}", func(r chi.Router) {
		r.Get("/", s.handleProblem)
		r.Post("/score", s.handleScore)
	})
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", s.handleLedger)
		r.Get("/{id}", s.handleLedgerEntry)
	})
	return r
}

// logRequests reports every request to the logger and the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		hooks.OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond), "request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleProblem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	info, err := s.runner.Info(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := pipeline.ScoreRequest{ID: id}
	if v := r.URL.Query().Get("variant"); v != "" {
		if req.Variant, err = problem.ParseVariant(v); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Solution, err = problem.ReadSolution(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.runner.Score(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type ledgerResponse struct {
	Total   float64        `json:"total"`
	Entries []ledger.Entry `json:"entries"`
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	scores, err := s.runner.Ledger.All(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse{Total: ledger.Total(scores), Entries: ledger.Sorted(scores)})
}

func (s *Server) handleLedgerEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	score, ok, err := s.runner.Ledger.Best(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no score recorded for problem %d", id))
		return
	}
	writeJSON(w, http.StatusOK, ledger.Entry{ID: id, Score: score})
}

func pathID(r *http.Request) (problem.ID, error) {
	id, err := problem.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, err
	}
	if id == 0 || id > problem.LastProblem {
		return 0, errors.New(errors.ErrCodeInvalidInput, "problem id %d out of range 1..%d", id, problem.LastProblem)
	}
	return id, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

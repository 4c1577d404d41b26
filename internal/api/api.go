package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/llm"
	"github.com/joescharf/fixxy/internal/models"
)

// Fixed response texts of the inference service.
const (
	RootMessage        = "IE-Fixxy backend is running!"
	InvalidTaskAnswer  = "Invalid task selected."
	errorAnswerPrefix  = "An error occurred: "
	defaultAskLanguage = "Python"
)

// Answerer produces the reply text for an ask request.
type Answerer interface {
	Answer(ctx context.Context, req models.AskRequest) (string, error)
}

// Server provides the inference and catalog HTTP handlers.
type Server struct {
	answerer Answerer
	catalog  catalog.Source
	limiter  *rate.Limiter
	validate *validator.Validate
	metrics  *metrics
	log      zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits /ask to rps requests per second with the given
// burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the server's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// NewServer creates a new API server. src may be nil, in which case the
// built-in catalog is served.
func NewServer(answerer Answerer, src catalog.Source, opts ...Option) *Server {
	if src == nil {
		src = catalog.Builtin()
	}
	s := &Server{
		answerer: answerer,
		catalog:  src,
		validate: validator.New(),
		metrics:  newMetrics(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns an http.Handler for all routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.root)
	mux.HandleFunc("POST /ask", s.ask)

	mux.HandleFunc("GET /api/v1/sets", s.listSets)
	mux.HandleFunc("GET /api/v1/sets/{id}/questions", s.listQuestions)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return s.requestIDMiddleware(s.accessLogMiddleware(corsMiddleware(mux)))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const requestIDKey ctxKey = iota

// requestIDMiddleware echoes the caller's X-Request-ID or assigns one.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request id stored by the server middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.log.Info().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
}

// --- Ask ---

// askPayload mirrors models.AskRequest with presence tracking, so a
// missing task or question is rejected while an empty one is accepted.
type askPayload struct {
	Task     *string `json:"task" validate:"required"`
	Question *string `json:"question" validate:"required"`
	Language *string `json:"language"`
	Code     *string `json:"code"`
}

func (p askPayload) request() models.AskRequest {
	req := models.AskRequest{
		Task:     *p.Task,
		Question: *p.Question,
		Language: defaultAskLanguage,
	}
	if p.Language != nil {
		req.Language = *p.Language
	}
	if p.Code != nil {
		req.Code = *p.Code
	}
	return req
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.rateLimited.Inc()
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var payload askPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}
	req := payload.request()

	start := time.Now()
	answer, err := s.answerer.Answer(r.Context(), req)
	outcome := "ok"
	switch {
	case errors.Is(err, llm.ErrUnknownTask):
		outcome = "invalid_task"
		answer = InvalidTaskAnswer
	case err != nil:
		outcome = "provider_error"
		s.log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Str("task", req.Task).Msg("completion failed")
		answer = errorAnswerPrefix + err.Error()
	}
	s.metrics.askDuration.WithLabelValues(metricTask(req.Task), outcome).Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}

// metricTask bounds the task label to known names.
func metricTask(task string) string {
	switch task {
	case "Explain", "Solve", "Debug", "TestCases":
		return task
	default:
		return "other"
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, strings.ToLower(fe.Field()))
	}
	return "missing required field: " + strings.Join(missing, ", ")
}

// --- Catalog ---

func (s *Server) listSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.catalog.ListSets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.catalog.ListQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrSetNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if term := r.URL.Query().Get("q"); term != "" {
		questions = catalog.Filter(questions, term)
	}
	if questions == nil {
		questions = []string{}
	}
	writeJSON(w, http.StatusOK, questions)
}

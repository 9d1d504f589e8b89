package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/internal/presentation/graph"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/runner"
	"github.com/aretw0/surveyflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the respondent surface of the engine over REST and SSE.
type Server struct {
	engine    ports.FlowEngine
	sessions  *session.Manager
	responses ports.ResponseStore
	publisher ports.ResultPublisher
	streams   *StreamManager
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	cors      bool
	now       func() time.Time
	newID     func() string
}

// Option configures a Server.
type Option func(*Server)

// WithSessions sets the attempt session manager. Defaults to an in-memory store.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithResponseStore sets where submitted results are stored. Defaults to memory.
func WithResponseStore(store ports.ResponseStore) Option {
	return func(s *Server) {
		s.responses = store
	}
}

// WithPublisher announces every stored response.
func WithPublisher(p ports.ResultPublisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithMetrics mounts /metrics for g.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCORS enables permissive CORS headers for browser clients.
func WithCORS(enabled bool) Option {
	return func(s *Server) {
		s.cors = enabled
	}
}

// WithClock overrides the time source of response records.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a server over engine.
func NewServer(engine ports.FlowEngine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(memory.NewStore(), session.WithLogger(s.logger))
	}
	if s.responses == nil {
		s.responses = memory.NewResponseStore()
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine ports.FlowEngine, opts ...Option) (http.Handler, error) {
	return NewServer(engine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() (http.Handler, error) {
	validate, err := s.requestValidator()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.cors {
		r.Use(enableCORS)
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/events", s.SubscribeReload)

		r.Route("/surveys/{surveyId}", func(r chi.Router) {
			r.Get("/", s.GetSurvey)
			r.Get("/graph", s.GetSurveyGraph)
			r.Post("/attempts", s.StartAttempt)
			r.Get("/responses", s.ListResponses)
			r.Post("/responses", s.SubmitResponse)
			r.Get("/responses/{responseId}", s.GetResponse)
			r.Delete("/responses/{responseId}", s.DeleteResponse)
		})

		r.Route("/attempts/{attemptId}", func(r chi.Router) {
			r.Get("/", s.GetAttempt)
			r.Delete("/", s.DeleteAttempt)
			r.Post("/answers", s.Answer)
			r.Post("/back", s.GoBack)
			r.Post("/reset", s.Reset)
			r.Get("/result", s.GetResult)
			r.Post("/submit", s.SubmitAttempt)
			r.Get("/events", s.SubscribeAttempt)
		})
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Surveyflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"app":         "surveyflow-http",
		"version":     strings.TrimSpace(surveyflow.Version),
		"api_version": apiVersion,
	})
}

// GetSurvey handles GET /surveys/{surveyId}.
func (s *Server) GetSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyId")
	survey, err := s.engine.Survey(r.Context(), surveyID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	pub := survey.Public()
	count, err := s.responses.Count(r.Context(), surveyID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	pub.ResponseCount = count
	s.writeJSON(w, r, http.StatusOK, pub)
}

// GetSurveyGraph handles GET /surveys/{surveyId}/graph.
// An attemptId query parameter overlays the attempt's path.
func (s *Server) GetSurveyGraph(w http.ResponseWriter, r *http.Request) {
	survey, err := s.engine.Survey(r.Context(), chi.URLParam(r, "surveyId"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var overlay *graph.Overlay
	if attemptID := r.URL.Query().Get("attemptId"); attemptID != "" {
		state, err := s.sessions.Load(r.Context(), attemptID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		overlay = graph.OverlayFromState(state)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(&survey.Graph, overlay)))
}

type startRequest struct {
	AttemptID string `json:"attemptId,omitempty"`
}

// StartAttempt handles POST /surveys/{surveyId}/attempts.
// Posting an attemptId that already exists resumes it.
func (s *Server) StartAttempt(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyId")

	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	attemptID := body.AttemptID
	if attemptID == "" {
		attemptID = s.newID()
	}

	state, err := s.sessions.LoadOrStart(r.Context(), attemptID, func() (*domain.AttemptState, error) {
		return s.engine.Start(r.Context(), surveyID, attemptID)
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if state.SurveyID != surveyID {
		s.writeError(w, r, http.StatusConflict, fmt.Errorf("attempt %s belongs to survey %s", attemptID, state.SurveyID))
		return
	}

	s.logger.InfoContext(r.Context(), "attempt started", "attempt", attemptID, "survey", surveyID)
	s.broadcast(nil, state)
	s.writeView(w, r, http.StatusCreated, state)
}

// GetAttempt handles GET /attempts/{attemptId}.
func (s *Server) GetAttempt(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "attemptId"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeView(w, r, http.StatusOK, state)
}

// DeleteAttempt handles DELETE /attempts/{attemptId}.
func (s *Server) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "attemptId")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Answer handles POST /attempts/{attemptId}/answers.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var answer domain.Answer
	if err := json.NewDecoder(r.Body).Decode(&answer); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := sanitizeAnswer(&answer); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	// Server time is authoritative.
	answer.AnsweredAt = time.Time{}

	s.mutate(w, r, func(ctx context.Context, state *domain.AttemptState) (*domain.AttemptState, error) {
		if answer.NodeID == "" {
			answer.NodeID = state.CurrentNodeID
		}
		if err := s.engine.Validate(ctx, state, answer); err != nil {
			return nil, err
		}
		return s.engine.Answer(ctx, state, answer)
	})
}

// GoBack handles POST /attempts/{attemptId}/back.
func (s *Server) GoBack(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.engine.Back)
}

// Reset handles POST /attempts/{attemptId}/reset. The attempt restarts on the entry node.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, state *domain.AttemptState) (*domain.AttemptState, error) {
		return s.engine.Start(ctx, state.SurveyID, state.ID)
	})
}

// mutate runs fn under the attempt lock, persists its result and notifies subscribers.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *domain.AttemptState) (*domain.AttemptState, error)) {
	ctx := r.Context()
	attemptID := chi.URLParam(r, "attemptId")

	var before *domain.AttemptState
	next, err := s.sessions.Update(ctx, attemptID, func(current *domain.AttemptState) (*domain.AttemptState, error) {
		before = current
		return fn(ctx, current)
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.broadcast(before, next)
	s.writeView(w, r, http.StatusOK, next)
}

// GetResult handles GET /attempts/{attemptId}/result.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "attemptId"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	res, err := s.engine.Result(state)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

// SubmitAttempt handles POST /attempts/{attemptId}/submit.
// The completed attempt becomes a stored response and is removed from the session store.
func (s *Server) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attemptID := chi.URLParam(r, "attemptId")

	var resp *domain.Response
	err := s.sessions.WithLock(ctx, attemptID, func(ctx context.Context) error {
		state, err := s.sessions.Store().Load(ctx, attemptID)
		if err != nil {
			return err
		}
		res, err := s.engine.Result(state)
		if err != nil {
			return err
		}
		// The attempt goes first; a failed store puts it back.
		if err := s.sessions.Store().Delete(ctx, attemptID); err != nil {
			return fmt.Errorf("failed to remove attempt: %w", err)
		}
		resp = domain.NewResponse(s.newID(), res, s.now())
		if err := s.responses.Save(ctx, resp); err != nil {
			if rerr := s.sessions.Store().Save(ctx, attemptID, state); rerr != nil {
				s.logger.ErrorContext(ctx, "failed to restore attempt", "attempt", attemptID, "err", rerr)
			}
			return fmt.Errorf("failed to store response: %w", err)
		}
		return nil
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.publish(ctx, resp)
	s.writeJSON(w, r, http.StatusCreated, resp)
}

type resultSubmission struct {
	Answers     []domain.Answer `json:"answers"`
	TotalScore  int             `json:"totalScore"`
	Path        []string        `json:"path"`
	CompletedAt time.Time       `json:"completedAt"`
}

// SubmitResponse handles POST /surveys/{surveyId}/responses, storing a result computed by the client.
func (s *Server) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID := chi.URLParam(r, "surveyId")

	if _, err := s.engine.Survey(ctx, surveyID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var body resultSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Answers == nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("answers must be an array"))
		return
	}
	for i := range body.Answers {
		if err := sanitizeAnswer(&body.Answers[i]); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	resp := domain.NewResponse(s.newID(), &domain.Result{
		SurveyID:    surveyID,
		Answers:     body.Answers,
		TotalScore:  body.TotalScore,
		Path:        body.Path,
		CompletedAt: body.CompletedAt,
	}, s.now())
	if resp.Path == nil {
		resp.Path = []string{}
	}

	if err := s.responses.Save(ctx, resp); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.publish(ctx, resp)
	s.writeJSON(w, r, http.StatusCreated, resp)
}

// ListResponses handles GET /surveys/{surveyId}/responses?limit=&offset=.
func (s *Server) ListResponses(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyId")

	var limit, offset int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid format for parameter limit: %w", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", r.URL.Query(), &offset); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid format for parameter offset: %w", err))
		return
	}

	list, err := s.responses.List(r.Context(), surveyID, limit, offset)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	total, err := s.responses.Count(r.Context(), surveyID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Response{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"total": total, "responses": list})
}

// GetResponse handles GET /surveys/{surveyId}/responses/{responseId}.
func (s *Server) GetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := s.responses.Get(r.Context(), chi.URLParam(r, "surveyId"), chi.URLParam(r, "responseId"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

// DeleteResponse handles DELETE /surveys/{surveyId}/responses/{responseId}.
func (s *Server) DeleteResponse(w http.ResponseWriter, r *http.Request) {
	if err := s.responses.Delete(r.Context(), chi.URLParam(r, "surveyId"), chi.URLParam(r, "responseId")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeAttempt handles GET /attempts/{attemptId}/events (SSE).
// The optional watch parameter filters diffs by field: node, score, path, completed, answers.
func (s *Server) SubscribeAttempt(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	attemptID := chi.URLParam(r, "attemptId")
	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	ch, cancel := s.streams.Subscribe(attemptID)
	defer cancel()

	writeSSEHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.DebugContext(r.Context(), "SSE subscribed", "attempt", attemptID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.DebugContext(r.Context(), "SSE client disconnected", "attempt", attemptID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// SubscribeReload handles GET /events, announcing survey documents that changed on disk.
func (s *Server) SubscribeReload(w http.ResponseWriter, r *http.Request) {
	watcher, ok := s.engine.(interface {
		Watch(ctx context.Context) (<-chan string, error)
	})
	if !ok {
		s.writeError(w, r, http.StatusNotImplemented, errors.New("engine does not support watching"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	events, err := watcher.Watch(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusNotImplemented, err)
		return
	}

	writeSSEHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// matchesWatch reports whether the serialized diff touches any watched field.
func matchesWatch(msg string, watch []string) bool {
	var diff domain.AttemptDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "node":
			if diff.CurrentNodeID != nil {
				return true
			}
		case "score":
			if diff.TotalScore != nil {
				return true
			}
		case "path":
			if diff.Path != nil {
				return true
			}
		case "completed":
			if diff.IsCompleted != nil {
				return true
			}
		case "answers":
			if diff.AnswerCount != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) broadcast(before, after *domain.AttemptState) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	if b, err := json.Marshal(diff); err == nil {
		s.streams.Broadcast(after.ID, string(b))
	}
}

// publish announces a stored response. Failures are logged; the response is already durable.
func (s *Server) publish(ctx context.Context, resp *domain.Response) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, resp); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish response", "response", resp.ID, "survey", resp.SurveyID, "err", err)
	}
}

func sanitizeAnswer(a *domain.Answer) error {
	for _, field := range []*string{&a.RespondentName, &a.RespondentEmail} {
		if *field == "" {
			continue
		}
		clean, err := runner.SanitizeInput(strings.TrimSpace(*field))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidAnswer, err)
		}
		*field = clean
	}
	return nil
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, status int, state *domain.AttemptState) {
	view, err := runner.BuildView(r.Context(), s.engine, state)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, status, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "response encode failed", "path", r.URL.Path, "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps sentinel errors to status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	s.writeError(w, r, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSurveyNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResponseNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSurveyNotPublished):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotCompleted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/runner"
	"github.com/aretw0/surveyflow/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NodeView is the agent-facing description of the node awaiting an answer.
type NodeView struct {
	ID          string          `json:"id" jsonschema_description:"Node id"`
	Kind        domain.NodeKind `json:"kind" jsonschema_description:"presentation, singleChoice, multipleChoice, rating or endScreen"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Options     []domain.Option `json:"options,omitempty" jsonschema_description:"Selectable options of choice nodes"`
	MinValue    *int            `json:"minValue,omitempty"`
	MaxValue    *int            `json:"maxValue,omitempty"`
	Hint        string          `json:"hint" jsonschema_description:"How to answer this node with the answer tool"`
}

// AttemptView aligns with the HTTP view and is returned by every attempt tool.
type AttemptView struct {
	AttemptID  string         `json:"attemptId"`
	SurveyID   string         `json:"surveyId"`
	Node       *NodeView      `json:"node,omitempty" jsonschema_description:"The node awaiting an answer"`
	CanGoBack  bool           `json:"canGoBack"`
	Completed  bool           `json:"completed"`
	TotalScore *int           `json:"totalScore,omitempty" jsonschema_description:"Running score when the survey enables scoring"`
	Path       []string       `json:"path"`
	Result     *domain.Result `json:"result,omitempty"`
}

type startArgs struct {
	SurveyID  string `json:"survey_id"`
	AttemptID string `json:"attempt_id,omitempty"`
}

type attemptArgs struct {
	AttemptID string `json:"attempt_id"`
}

type answerArgs struct {
	AttemptID   string `json:"attempt_id"`
	Input       string `json:"input,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AcceptTerms bool   `json:"accept_terms,omitempty"`
}

// Server exposes survey attempts as MCP tools so that an agent can take a survey.
type Server struct {
	engine    ports.FlowEngine
	surveys   func(ctx context.Context) ([]string, error)
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions sets where attempts live between tool calls. Defaults to memory.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
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

// WithSurveyLister enables the list_surveys tool.
func WithSurveyLister(fn func(ctx context.Context) ([]string, error)) Option {
	return func(s *Server) {
		s.surveys = fn
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.FlowEngine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("surveyflow-mcp", strings.TrimSpace(surveyflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(memory.NewStore(), session.WithLogger(s.logger))
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_attempt",
		mcp.WithDescription("Start (or resume) an attempt at a survey and return the first node."),
		mcp.WithString("survey_id", mcp.Required(), mcp.Description("Survey id")),
		mcp.WithString("attempt_id", mcp.Description("Attempt id to resume; generated when omitted")),
		mcp.WithOutputSchema[AttemptView](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Answer the current node. Choices accept option numbers, ids or labels "+
			"(comma separated for multiple choice); ratings accept an integer. "+
			"Presentation nodes take name, email and accept_terms."),
		mcp.WithString("attempt_id", mcp.Required(), mcp.Description("Attempt id")),
		mcp.WithString("input", mcp.Description("Answer text for choice and rating nodes")),
		mcp.WithString("name", mcp.Description("Respondent name on presentation nodes")),
		mcp.WithString("email", mcp.Description("Respondent email on presentation nodes")),
		mcp.WithBoolean("accept_terms", mcp.Description("Accept the terms on presentation nodes")),
		mcp.WithOutputSchema[AttemptView](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Undo the last answer and return to the previous node."),
		mcp.WithString("attempt_id", mcp.Required(), mcp.Description("Attempt id")),
		mcp.WithOutputSchema[AttemptView](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("current_node",
		mcp.WithDescription("Show the node awaiting an answer."),
		mcp.WithString("attempt_id", mcp.Required(), mcp.Description("Attempt id")),
		mcp.WithOutputSchema[AttemptView](),
	), mcp.NewStructuredToolHandler(s.handleCurrent))

	s.mcpServer.AddTool(mcp.NewTool("get_result",
		mcp.WithDescription("Get the final answers, score and path of a completed attempt."),
		mcp.WithString("attempt_id", mcp.Required(), mcp.Description("Attempt id")),
	), s.handleResult)

	if s.surveys != nil {
		s.mcpServer.AddTool(mcp.NewTool("list_surveys",
			mcp.WithDescription("List the ids of the available surveys."),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ids, err := s.surveys(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
			}
			return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
		})
	}
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args startArgs) (AttemptView, error) {
	if args.SurveyID == "" {
		return AttemptView{}, errors.New("survey_id is required")
	}
	attemptID := args.AttemptID
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	state, err := s.sessions.LoadOrStart(ctx, attemptID, func() (*domain.AttemptState, error) {
		return s.engine.Start(ctx, args.SurveyID, attemptID)
	})
	if err != nil {
		return AttemptView{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.InfoContext(ctx, "MCP attempt started", "attempt", attemptID, "survey", args.SurveyID)
	return s.view(ctx, state)
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args answerArgs) (AttemptView, error) {
	input, err := runner.SanitizeInput(strings.TrimSpace(args.Input))
	if err != nil {
		s.logger.WarnContext(ctx, "MCP answer: input rejected", "err", err, "size", len(args.Input))
		return AttemptView{}, fmt.Errorf("input rejected: %w", err)
	}

	next, err := s.sessions.Update(ctx, args.AttemptID, func(state *domain.AttemptState) (*domain.AttemptState, error) {
		node, err := s.engine.CurrentNode(ctx, state)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, fmt.Errorf("%w: attempt has no current node", domain.ErrInvalidAnswer)
		}

		answer, err := runner.ParseAnswer(node, input)
		if err != nil {
			return nil, err
		}
		if node.Kind == domain.KindPresentation {
			answer.RespondentName = strings.TrimSpace(args.Name)
			answer.RespondentEmail = strings.TrimSpace(args.Email)
			answer.AcceptedTerms = args.AcceptTerms
		}

		if err := s.engine.Validate(ctx, state, answer); err != nil {
			return nil, err
		}
		return s.engine.Answer(ctx, state, answer)
	})
	if err != nil {
		return AttemptView{}, fmt.Errorf("answer failed: %w", err)
	}
	return s.view(ctx, next)
}

func (s *Server) handleBack(ctx context.Context, _ mcp.CallToolRequest, args attemptArgs) (AttemptView, error) {
	next, err := s.sessions.Update(ctx, args.AttemptID, func(state *domain.AttemptState) (*domain.AttemptState, error) {
		return s.engine.Back(ctx, state)
	})
	if err != nil {
		return AttemptView{}, fmt.Errorf("go back failed: %w", err)
	}
	return s.view(ctx, next)
}

func (s *Server) handleCurrent(ctx context.Context, _ mcp.CallToolRequest, args attemptArgs) (AttemptView, error) {
	state, err := s.sessions.Load(ctx, args.AttemptID)
	if err != nil {
		return AttemptView{}, err
	}
	return s.view(ctx, state)
}

func (s *Server) handleResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	attemptID := request.GetString("attempt_id", "")
	state, err := s.sessions.Load(ctx, attemptID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.engine.Result(state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) view(ctx context.Context, state *domain.AttemptState) (AttemptView, error) {
	rv, err := runner.BuildView(ctx, s.engine, state)
	if err != nil {
		return AttemptView{}, err
	}

	v := AttemptView{
		AttemptID: state.ID,
		SurveyID:  state.SurveyID,
		CanGoBack: rv.CanGoBack,
		Completed: state.IsCompleted,
		Path:      append([]string{}, state.VisitedPath...),
		Result:    rv.Result,
	}
	if rv.ScoringEnabled {
		score := state.TotalScore
		v.TotalScore = &score
	}
	if rv.Node != nil {
		v.Node = nodeView(rv.Node)
	}
	return v, nil
}

func nodeView(n *domain.Node) *NodeView {
	nv := &NodeView{
		ID:          n.ID,
		Kind:        n.Kind,
		Title:       n.Title(),
		Description: n.Description(),
		Options:     n.Options(),
	}
	switch n.Kind {
	case domain.KindPresentation:
		nv.Hint = "Call answer with name, email and accept_terms as requested."
		if p, ok := n.Presentation(); ok && !(p.CollectName || p.CollectEmail || p.CollectTerms) {
			nv.Hint = "Call answer with no input to continue."
		}
	case domain.KindSingleChoice:
		nv.Hint = "Call answer with one option number, id or label."
	case domain.KindMultipleChoice:
		nv.Hint = "Call answer with comma separated option numbers, ids or labels; empty selects none."
	case domain.KindRating:
		if r, ok := n.Rating(); ok {
			minV, maxV := r.MinValue, r.MaxValue
			nv.MinValue, nv.MaxValue = &minV, &maxV
			nv.Hint = fmt.Sprintf("Call answer with an integer from %d to %d.", minV, maxV)
		}
	case domain.KindEndScreen:
		nv.Hint = "Call answer with no input to finish."
	}
	return nv
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("surveyflow://surveys/{id}", "Survey Definition",
		mcp.WithTemplateDescription("Public survey document with its graph"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, "surveyflow://surveys/")
		survey, err := s.engine.Survey(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load survey: %w", err)
		}
		b, err := json.Marshal(survey.Public())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}

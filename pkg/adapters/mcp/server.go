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

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/cloud8421/recipe/pkg/registry"
)

// RunOutcome aligns with the HTTP RunResponse schema and provides a
// unified structure across adapters.
type RunOutcome struct {
	CorrelationID string `json:"correlation_id" jsonschema_description:"Identifier of the run"`
	Status        string `json:"status" jsonschema_description:"Terminal status: succeeded or failed"`
	Value         any    `json:"value,omitempty" jsonschema_description:"Result handler value, present on success"`
	Error         string `json:"error,omitempty" jsonschema_description:"Error handler text, present on failure"`
}

// ValidationOutcome reports whether a recipe's declared steps all
// resolve against the registry.
type ValidationOutcome struct {
	Valid        bool     `json:"valid" jsonschema_description:"True when every declared step has an implementation"`
	MissingSteps []string `json:"missing_steps,omitempty" jsonschema_description:"Declared steps without an implementation, in declaration order"`
	Error        string   `json:"error,omitempty" jsonschema_description:"Validation error text"`
}

// Engine is the run surface the MCP adapter drives. The top-level
// recipe.Engine satisfies it.
type Engine interface {
	RunNamed(ctx context.Context, name string, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error)
	Recipe(ctx context.Context, name string) (*domain.Manifest, error)
	Recipes(ctx context.Context) ([]*domain.Manifest, error)
	Registry() *registry.Registry
}

var _ Engine = (*recipe.Engine)(nil)

// Server exposes the recipe engine as an MCP server.
type Server struct {
	engine    Engine
	store     ports.RunStore
	mcpServer *server.MCPServer
}

// Option configures the MCP server.
type Option func(*Server)

// WithStore exposes recorded runs through the get_run tool.
func WithStore(store ports.RunStore) Option {
	return func(s *Server) { s.store = store }
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("recipe-mcp", strings.TrimSpace(recipe.Version)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it
// down gracefully when ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_recipe
	runTool := mcp.NewTool("run_recipe",
		mcp.WithDescription("Execute a recipe from the catalog over the given initial values."),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Catalog name of the recipe to run")),
		mcp.WithString("values", mcp.Description("JSON object of initial state values (optional)")),
		mcp.WithString("correlation_id", mcp.Description("Pins the run identifier instead of generating one (optional)")),
		mcp.WithBoolean("telemetry", mcp.Description("Per-call override for the observer protocol (optional)")),
		mcp.WithOutputSchema[RunOutcome](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunRecipe))

	// TOOL: validate_recipe
	validateTool := mcp.NewTool("validate_recipe",
		mcp.WithDescription("Check that every step a recipe declares has a registered implementation."),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Catalog name of the recipe to validate")),
		mcp.WithOutputSchema[ValidationOutcome](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateRecipe))

	// TOOL: get_run
	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Fetch the recorded terminal outcome of a run."),
		mcp.WithString("correlation_id", mcp.Required(), mcp.Description("Identifier of the run")),
		mcp.WithOutputSchema[domain.RunRecord](),
	)
	s.mcpServer.AddTool(getRunTool, mcp.NewStructuredToolHandler(s.handleGetRun))

	// TOOL: list_recipes
	s.mcpServer.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List the recipes available in the catalog."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		manifests, err := s.engine.Recipes(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list recipes failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(manifests)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleRunRecipe(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (RunOutcome, error) {
	name, _ := args["recipe"].(string)
	if name == "" {
		return RunOutcome{}, fmt.Errorf("recipe name is required")
	}

	initial := domain.NewState()
	if valuesStr, ok := args["values"].(string); ok && valuesStr != "" {
		values := map[string]any{}
		if err := json.Unmarshal([]byte(valuesStr), &values); err != nil {
			return RunOutcome{}, fmt.Errorf("values must be a JSON object: %w", err)
		}
		initial = initial.WithValues(values)
	}

	correlationID, _ := args["correlation_id"].(string)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	opts := []domain.RunOption{domain.WithCorrelationID(correlationID)}
	if telemetry, ok := args["telemetry"].(bool); ok {
		opts = append(opts, domain.WithTelemetry(telemetry))
	}

	result, err := s.engine.RunNamed(ctx, name, initial, opts...)
	if err != nil {
		// A recipe that cannot be resolved is a caller error; a recipe
		// that ran and failed is a reportable outcome.
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return RunOutcome{}, err
		}
		var missing *domain.MissingStepsError
		if errors.As(err, &missing) {
			return RunOutcome{}, err
		}
		return RunOutcome{
			CorrelationID: correlationID,
			Status:        string(domain.RunFailed),
			Error:         err.Error(),
		}, nil
	}

	return RunOutcome{
		CorrelationID: result.CorrelationID,
		Status:        string(domain.RunSucceeded),
		Value:         result.Value,
	}, nil
}

func (s *Server) handleValidateRecipe(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (ValidationOutcome, error) {
	name, _ := args["recipe"].(string)
	if name == "" {
		return ValidationOutcome{}, fmt.Errorf("recipe name is required")
	}

	m, err := s.engine.Recipe(ctx, name)
	if err != nil {
		return ValidationOutcome{}, fmt.Errorf("load recipe: %w", err)
	}

	out := ValidationOutcome{Valid: true}
	if _, err := s.engine.Registry().Bind(m); err != nil {
		out.Valid = false
		out.Error = err.Error()
		var missing *domain.MissingStepsError
		if errors.As(err, &missing) {
			out.MissingSteps = missing.Steps
		}
	}
	return out, nil
}

func (s *Server) handleGetRun(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (domain.RunRecord, error) {
	if s.store == nil {
		return domain.RunRecord{}, fmt.Errorf("no run store configured")
	}
	id, _ := args["correlation_id"].(string)
	if id == "" {
		return domain.RunRecord{}, fmt.Errorf("correlation_id is required")
	}

	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return domain.RunRecord{}, err
	}
	return *rec, nil
}

func (s *Server) registerResources() {
	// EXPOSE: recipe://catalog
	s.mcpServer.AddResource(mcp.NewResource("recipe://catalog", "Recipe Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		manifests, err := s.engine.Recipes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list recipes: %w", err)
		}
		jsonBytes, _ := json.Marshal(manifests)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "recipe://catalog",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

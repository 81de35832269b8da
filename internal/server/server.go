// Package server provides the recipebox JSON API over HTTP with lifecycle
// management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/recipebox/internal/service"
)

// Server wraps the recipe service with HTTP routing and lifecycle management.
type Server struct {
	svc      *service.RecipeService
	events   *service.Dispatcher
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a server for svc. events may be nil, in which case the event
// feed answers 503.
func New(svc *service.RecipeService, events *service.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:    svc,
		events: events,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("GET /stats", s.handleStats)

	// Recipes
	mux.HandleFunc("POST /recipes", s.handleCreateRecipe)
	mux.HandleFunc("GET /recipes", s.handleListRecipes)
	mux.HandleFunc("POST /recipes/import", s.handleImport)
	mux.HandleFunc("GET /recipes/{recipeID}", s.handleGetRecipe)
	mux.HandleFunc("DELETE /recipes/{recipeID}", s.handleDeleteRecipe)
	mux.HandleFunc("GET /recipes/{recipeID}/graph", s.handleGraph)
	mux.HandleFunc("GET /recipes/{recipeID}/events", s.handleEvents)

	// Steps
	mux.HandleFunc("GET /recipes/{recipeID}/steps", s.handleListSteps)
	mux.HandleFunc("POST /recipes/{recipeID}/steps", s.handleCreateStep)
	mux.HandleFunc("GET /recipes/{recipeID}/steps/{stepID}", s.handleGetStep)
	mux.HandleFunc("DELETE /recipes/{recipeID}/steps/{stepID}", s.handleDeleteStep)
	mux.HandleFunc("POST /recipes/{recipeID}/steps/{stepID}/move", s.handleMoveStep)

	// Ingredients
	mux.HandleFunc("POST /ingredients/parse", s.handleParseIngredients)
	mux.HandleFunc("POST /recipes/{recipeID}/steps/{stepID}/ingredients", s.handleAddIngredients)
	mux.HandleFunc("GET /recipes/{recipeID}/steps/{stepID}/ingredients", s.handleListIngredients)

	return LoggingMiddleware(s.logger)(mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // Long for LLM ingredient parsing
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

// =============================================================================
// RECIPES
// =============================================================================

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	input, err := decodeCreateRecipe(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recipe, err := s.svc.CreateRecipe(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.svc.ListRecipes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.svc.GetRecipe(r.Context(), r.PathValue("recipeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRecipe(r.Context(), r.PathValue("recipeID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.ImportContent(r.Context(), req.FileName, req.Content, service.ImportOptions{DryRun: req.DryRun})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Graph(r.Context(), r.PathValue("recipeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// =============================================================================
// STEPS
// =============================================================================

func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.svc.ListSteps(r.Context(), r.PathValue("recipeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func (s *Server) handleGetStep(w http.ResponseWriter, r *http.Request) {
	step, err := s.svc.GetStep(r.Context(), r.PathValue("recipeID"), r.PathValue("stepID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) handleCreateStep(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateStep(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.CreateStep(r.Context(), r.PathValue("recipeID"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteStep(r.Context(), r.PathValue("recipeID"), r.PathValue("stepID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveStep(w http.ResponseWriter, r *http.Request) {
	dir, err := decodeMove(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	moved, err := s.svc.MoveStep(r.Context(), r.PathValue("recipeID"), r.PathValue("stepID"), dir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Moved: moved})
}

// =============================================================================
// INGREDIENTS
// =============================================================================

func (s *Server) handleParseIngredients(w http.ResponseWriter, r *http.Request) {
	text, err := decodeIngredientText(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	parsed, err := s.svc.ParseIngredients(r.Context(), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleAddIngredients(w http.ResponseWriter, r *http.Request) {
	text, err := decodeIngredientText(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.svc.AddIngredients(r.Context(), r.PathValue("recipeID"), r.PathValue("stepID"), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListIngredients(r.Context(), r.PathValue("recipeID"), r.PathValue("stepID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Package client provides a Go client for the recipebox HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/server"
	"github.com/raphaelgruber/recipebox/internal/service"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// Client talks to a recipebox server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
// If baseURL is empty, uses RECIPEBOX_SERVER_URL env var or defaults to localhost:8484.
// Timeout can be configured via RECIPEBOX_CLIENT_TIMEOUT env var (default 2m for LLM ingredient parsing).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("RECIPEBOX_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8484"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("RECIPEBOX_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// do sends body as JSON to path and decodes a 2xx response into result.
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func recipePath(recipeID string) string {
	return "/recipes/" + url.PathEscape(recipeID)
}

func stepPath(recipeID, stepID string) string {
	return recipePath(recipeID) + "/steps/" + url.PathEscape(stepID)
}

// Health reports whether the server answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Stats returns the server's metrics snapshot.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// =============================================================================
// RECIPES
// =============================================================================

// CreateRecipe creates a recipe.
func (c *Client) CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error) {
	var out models.Recipe
	body := server.CreateRecipeRequest{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Servings:    input.Servings,
	}
	if err := c.do(ctx, http.MethodPost, "/recipes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRecipe fetches a recipe by ID.
func (c *Client) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	var out models.Recipe
	if err := c.do(ctx, http.MethodGet, recipePath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecipes lists all recipes.
func (c *Client) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var out []models.Recipe
	if err := c.do(ctx, http.MethodGet, "/recipes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRecipe deletes a recipe with its steps.
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, recipePath(id), nil, nil)
}

// ImportContent imports a Markdown recipe. filePath only supplies a
// fallback title.
func (c *Client) ImportContent(ctx context.Context, filePath, content string, opts service.ImportOptions) (*service.ImportResult, error) {
	var out service.ImportResult
	body := server.ImportRequest{FileName: filePath, Content: content, DryRun: opts.DryRun}
	if err := c.do(ctx, http.MethodPost, "/recipes/import", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Graph returns the recipe's dependency graph.
func (c *Client) Graph(ctx context.Context, recipeID string) (*service.GraphView, error) {
	var out service.GraphView
	if err := c.do(ctx, http.MethodGet, recipePath(recipeID)+"/graph", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// STEPS
// =============================================================================

// ListSteps lists the recipe's steps in order.
func (c *Client) ListSteps(ctx context.Context, recipeID string) ([]models.StepSummary, error) {
	var out []models.StepSummary
	if err := c.do(ctx, http.MethodGet, recipePath(recipeID)+"/steps", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStep fetches one step with its edges.
func (c *Client) GetStep(ctx context.Context, recipeID, stepID string) (*models.StepSummary, error) {
	var out models.StepSummary
	if err := c.do(ctx, http.MethodGet, stepPath(recipeID, stepID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStep appends a step to the recipe.
func (c *Client) CreateStep(ctx context.Context, recipeID string, req stepgraph.CreateStepRequest) (*models.RecipeStep, error) {
	var out models.RecipeStep
	body := server.CreateStepRequest{
		Description: req.Description,
		StepTitle:   req.StepTitle,
		Duration:    req.Duration,
		UsesSteps:   req.UsesSteps,
	}
	if err := c.do(ctx, http.MethodPost, recipePath(recipeID)+"/steps", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStep deletes a step. A blocked deletion returns an error that
// errors.As matches against *stepgraph.DeletionBlockedError.
func (c *Client) DeleteStep(ctx context.Context, recipeID, stepID string) error {
	return c.do(ctx, http.MethodDelete, stepPath(recipeID, stepID), nil, nil)
}

// MoveStep moves a step one position up or down.
func (c *Client) MoveStep(ctx context.Context, recipeID, stepID string, dir stepgraph.Direction) (bool, error) {
	var out server.MoveResponse
	body := server.MoveRequest{Direction: string(dir)}
	if err := c.do(ctx, http.MethodPost, stepPath(recipeID, stepID)+"/move", body, &out); err != nil {
		return false, err
	}
	return out.Moved, nil
}

// =============================================================================
// INGREDIENTS
// =============================================================================

// ParseIngredients parses text on the server without storing anything.
func (c *Client) ParseIngredients(ctx context.Context, text string) ([]models.ParsedIngredient, error) {
	var out []models.ParsedIngredient
	if err := c.do(ctx, http.MethodPost, "/ingredients/parse", server.IngredientsRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddIngredients parses text and attaches the ingredients to a step.
func (c *Client) AddIngredients(ctx context.Context, recipeID, stepID, text string) ([]models.Ingredient, error) {
	var out []models.Ingredient
	if err := c.do(ctx, http.MethodPost, stepPath(recipeID, stepID)+"/ingredients", server.IngredientsRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIngredients lists a step's ingredients.
func (c *Client) ListIngredients(ctx context.Context, recipeID, stepID string) ([]models.Ingredient, error) {
	var out []models.Ingredient
	if err := c.do(ctx, http.MethodGet, stepPath(recipeID, stepID)+"/ingredients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Package service provides the recipe operations shared by the HTTP API and
// the CLI. It routes step mutations through the stepgraph services, times
// them, and publishes an event after each committed change.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/recipebox/internal/ingredients"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// Store is the persistence the service needs: the step store plus recipes
// and step-scoped ingredients. Implemented by db.Client and memstore.Store.
type Store interface {
	stepgraph.StepStore

	CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) (bool, error)

	AddIngredients(ctx context.Context, recipeID string, stepNum int, items []models.Ingredient) ([]models.Ingredient, error)
	ListIngredients(ctx context.Context, recipeID string, stepNum int) ([]models.Ingredient, error)
}

// Options configures a RecipeService. Every field is optional.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Parser  ingredients.Parser // defaults to the heuristic parser
	Events  Publisher
}

// RecipeService handles recipe, step and ingredient operations.
type RecipeService struct {
	store   Store
	graph   *stepgraph.DependencyGraph
	creator *stepgraph.CreationService
	deleter *stepgraph.DeletionService
	mover   *stepgraph.ReorderService
	parser  ingredients.Parser
	events  Publisher
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewRecipeService creates a recipe service on store.
func NewRecipeService(store Store, opts Options) *RecipeService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	parser := opts.Parser
	if parser == nil {
		parser = ingredients.HeuristicParser{}
	}
	return &RecipeService{
		store:   store,
		graph:   stepgraph.NewDependencyGraph(store),
		creator: stepgraph.NewCreationService(store, logger),
		deleter: stepgraph.NewDeletionService(store, logger),
		mover:   stepgraph.NewReorderService(store, logger),
		parser:  parser,
		events:  opts.Events,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// timed records the elapsed time of op when called.
func (s *RecipeService) timed(op string) func() {
	start := time.Now()
	return func() {
		if s.metrics != nil {
			s.metrics.RecordTiming(op, time.Since(start))
		}
	}
}

func (s *RecipeService) publish(evt Event) {
	if s.events != nil {
		s.events.Publish(evt)
	}
}

// Stats returns the metrics snapshot, or a zero snapshot without a collector.
func (s *RecipeService) Stats() metrics.Snapshot {
	if s.metrics == nil {
		return metrics.Snapshot{}
	}
	return s.metrics.Snapshot()
}

// =============================================================================
// RECIPES
// =============================================================================

// CreateRecipe validates and stores a recipe. A caller-supplied ID is
// slugified.
func (s *RecipeService) CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, &stepgraph.ValidationError{Field: "title", Message: "must not be blank"}
	}
	if input.Servings != nil && *input.Servings <= 0 {
		return nil, &stepgraph.ValidationError{Field: "servings", Message: "must be positive"}
	}
	if input.ID != "" {
		input.ID = models.Slugify(input.ID)
		if input.ID == "" {
			return nil, &stepgraph.ValidationError{Field: "id", Message: "must contain letters or digits"}
		}
		existing, err := s.store.GetRecipe(ctx, input.ID)
		if err != nil {
			return nil, &stepgraph.StoreError{Op: "get recipe", Err: err}
		}
		if existing != nil {
			return nil, &stepgraph.ValidationError{Field: "id", Message: fmt.Sprintf("recipe %s already exists", input.ID)}
		}
	}

	r, err := s.store.CreateRecipe(ctx, input)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "create recipe", Err: err}
	}
	s.logger.Info("recipe created", "recipe", r.ID, "title", r.Title)
	return r, nil
}

// GetRecipe returns the recipe or an error wrapping stepgraph.ErrNotFound.
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "get recipe", Err: err}
	}
	if r == nil {
		return nil, fmt.Errorf("recipe %s: %w", id, stepgraph.ErrNotFound)
	}
	return r, nil
}

// ListRecipes returns all recipes ordered by title.
func (s *RecipeService) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	out, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "list recipes", Err: err}
	}
	return out, nil
}

// DeleteRecipe removes a recipe with all of its steps, edges and
// ingredients.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteRecipe(ctx, id)
	if err != nil {
		return &stepgraph.StoreError{Op: "delete recipe", Err: err}
	}
	if !deleted {
		return fmt.Errorf("recipe %s: %w", id, stepgraph.ErrNotFound)
	}
	s.logger.Info("recipe deleted", "recipe", id)
	return nil
}

// =============================================================================
// STEPS
// =============================================================================

// ListSteps returns the recipe's steps in order, each with the steps it
// uses and the steps that use it.
func (s *RecipeService) ListSteps(ctx context.Context, recipeID string) ([]models.StepSummary, error) {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	steps, err := s.store.ListSteps(ctx, recipeID)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "list steps", Err: err}
	}
	g, err := s.graph.Load(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	out := make([]models.StepSummary, len(steps))
	for i, st := range steps {
		out[i] = models.StepSummary{
			RecipeStep: st,
			UsesSteps:  g.DependenciesOf(st.StepNum),
			UsedBy:     g.DependentsOf(st.StepNum),
		}
	}
	return out, nil
}

// GetStep returns one step of the recipe with its edges.
func (s *RecipeService) GetStep(ctx context.Context, recipeID, stepID string) (*models.StepSummary, error) {
	st, err := s.requireStep(ctx, recipeID, stepID)
	if err != nil {
		return nil, err
	}
	g, err := s.graph.Load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return &models.StepSummary{
		RecipeStep: *st,
		UsesSteps:  g.DependenciesOf(st.StepNum),
		UsedBy:     g.DependentsOf(st.StepNum),
	}, nil
}

// CreateStep appends a step to the recipe. See stepgraph.CreationService.
func (s *RecipeService) CreateStep(ctx context.Context, recipeID string, req stepgraph.CreateStepRequest) (*models.RecipeStep, error) {
	defer s.timed(metrics.OpStepCreate)()

	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}
	st, err := s.creator.CreateStep(ctx, recipeID, req)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(EventStepCreated, recipeID, st.ID, st.StepNum))
	return st, nil
}

// DeleteStep deletes a step unless another step uses it. See
// stepgraph.DeletionService.
func (s *RecipeService) DeleteStep(ctx context.Context, recipeID, stepID string) error {
	defer s.timed(metrics.OpStepDelete)()

	st, err := s.requireStep(ctx, recipeID, stepID)
	if err != nil {
		return err
	}
	if err := s.deleter.DeleteStep(ctx, recipeID, stepID); err != nil {
		return err
	}
	s.publish(newEvent(EventStepDeleted, recipeID, stepID, st.StepNum))
	return nil
}

// MoveStep swaps the step with its neighbour in dir. moved is false when
// there is no neighbour.
func (s *RecipeService) MoveStep(ctx context.Context, recipeID, stepID string, dir stepgraph.Direction) (bool, error) {
	defer s.timed(metrics.OpStepMove)()

	moved, err := s.mover.Reorder(ctx, recipeID, stepID, dir)
	if err != nil || !moved {
		return moved, err
	}

	st, err := s.store.GetStep(ctx, recipeID, stepID)
	if err != nil {
		return true, &stepgraph.StoreError{Op: "get step", Err: err}
	}
	if st != nil {
		evt := newEvent(EventStepMoved, recipeID, stepID, st.StepNum)
		evt.Direction = string(dir)
		s.publish(evt)
	}
	return true, nil
}

// GraphView is the dependency graph of one recipe.
type GraphView struct {
	RecipeID           string                 `json:"recipe_id"`
	Edges              []models.StepOutputUse `json:"edges"`
	Dependents         map[int][]int          `json:"dependents"`
	Dependencies       map[int][]int          `json:"dependencies"`
	OrderingViolations []models.StepOutputUse `json:"ordering_violations"`
}

// Graph returns the recipe's dependency graph, including edges whose
// producer no longer precedes its consumer.
func (s *RecipeService) Graph(ctx context.Context, recipeID string) (*GraphView, error) {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}
	steps, err := s.store.ListSteps(ctx, recipeID)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "list steps", Err: err}
	}
	g, err := s.graph.Load(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	view := &GraphView{
		RecipeID:           recipeID,
		Edges:              g.Edges(),
		Dependents:         make(map[int][]int, len(steps)),
		Dependencies:       make(map[int][]int, len(steps)),
		OrderingViolations: g.OrderingViolations(),
	}
	for _, st := range steps {
		view.Dependents[st.StepNum] = g.DependentsOf(st.StepNum)
		view.Dependencies[st.StepNum] = g.DependenciesOf(st.StepNum)
	}
	return view, nil
}

func (s *RecipeService) requireStep(ctx context.Context, recipeID, stepID string) (*models.RecipeStep, error) {
	st, err := s.store.GetStep(ctx, recipeID, stepID)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "get step", Err: err}
	}
	if st == nil {
		return nil, fmt.Errorf("step %s in recipe %s: %w", stepID, recipeID, stepgraph.ErrNotFound)
	}
	return st, nil
}

// =============================================================================
// INGREDIENTS
// =============================================================================

// ParseIngredients parses text without storing anything.
func (s *RecipeService) ParseIngredients(ctx context.Context, text string) ([]models.ParsedIngredient, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &stepgraph.ValidationError{Field: "text", Message: "must not be blank"}
	}
	return s.parser.Parse(ctx, text)
}

// AddIngredients parses text and attaches the result to the step.
func (s *RecipeService) AddIngredients(ctx context.Context, recipeID, stepID, text string) ([]models.Ingredient, error) {
	st, err := s.requireStep(ctx, recipeID, stepID)
	if err != nil {
		return nil, err
	}
	parsed, err := s.ParseIngredients(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, &stepgraph.ValidationError{Field: "text", Message: "no ingredients found"}
	}

	// Keep the source line when the parser returned one item per line.
	lines := nonBlankLines(text)
	items := make([]models.Ingredient, len(parsed))
	for i, p := range parsed {
		items[i] = models.Ingredient{Quantity: p.Quantity, Unit: p.Unit, Name: p.Name}
		if len(lines) == len(parsed) {
			items[i].Raw = lines[i]
		}
	}

	added, err := s.store.AddIngredients(ctx, recipeID, st.StepNum, items)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "add ingredients", Err: err}
	}
	s.logger.Info("ingredients added", "recipe", recipeID, "step_num", st.StepNum, "count", len(added))
	return added, nil
}

// ListIngredients returns the ingredients attached to a step.
func (s *RecipeService) ListIngredients(ctx context.Context, recipeID, stepID string) ([]models.Ingredient, error) {
	st, err := s.requireStep(ctx, recipeID, stepID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListIngredients(ctx, recipeID, st.StepNum)
	if err != nil {
		return nil, &stepgraph.StoreError{Op: "list ingredients", Err: err}
	}
	return out, nil
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

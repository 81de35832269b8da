// Package memstore provides an in-memory store for recipes, steps, dependency
// edges and ingredients. A single mutex serializes every call, so each
// mutation is atomic. Safe for concurrent access.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// Compile-time interface check.
var _ stepgraph.StepStore = (*Store)(nil)

// Store is an in-memory recipe store.
type Store struct {
	mu          sync.RWMutex
	recipes     map[string]models.Recipe
	steps       map[string]models.RecipeStep // by step ID
	edges       []models.StepOutputUse
	ingredients []models.Ingredient
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		recipes: make(map[string]models.Recipe),
		steps:   make(map[string]models.RecipeStep),
		now:     time.Now,
	}
}

// CreateRecipe stores a new recipe. Returns an error if the ID is taken.
func (s *Store) CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := s.recipes[id]; ok {
		return nil, fmt.Errorf("recipe %s already exists", id)
	}
	r := models.Recipe{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Servings:    input.Servings,
		Created:     s.now(),
	}
	s.recipes[id] = r
	return &r, nil
}

// GetRecipe returns the recipe or nil if it does not exist.
func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListRecipes returns all recipes ordered by title.
func (s *Store) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.Recipe) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// DeleteRecipe removes the recipe with all of its steps, edges and
// ingredients. Returns false if the recipe did not exist.
func (s *Store) DeleteRecipe(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return false, nil
	}
	delete(s.recipes, id)
	for sid, st := range s.steps {
		if st.RecipeID == id {
			delete(s.steps, sid)
		}
	}
	s.edges = slices.DeleteFunc(s.edges, func(e models.StepOutputUse) bool { return e.RecipeID == id })
	s.ingredients = slices.DeleteFunc(s.ingredients, func(i models.Ingredient) bool { return i.RecipeID == id })
	return true, nil
}

// GetStep implements stepgraph.StepStore.
func (s *Store) GetStep(ctx context.Context, recipeID, stepID string) (*models.RecipeStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.steps[stepID]
	if !ok || st.RecipeID != recipeID {
		return nil, nil
	}
	return &st, nil
}

// ListSteps implements stepgraph.StepStore.
func (s *Store) ListSteps(ctx context.Context, recipeID string) ([]models.RecipeStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stepsOf(recipeID), nil
}

// ListEdges implements stepgraph.StepStore.
func (s *Store) ListEdges(ctx context.Context, recipeID string) ([]models.StepOutputUse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.StepOutputUse
	for _, e := range s.edges {
		if e.RecipeID == recipeID {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateStepWithEdges implements stepgraph.StepStore.
func (s *Store) CreateStepWithEdges(ctx context.Context, step models.RecipeStep, usesSteps []int) (*models.RecipeStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[step.RecipeID]; !ok {
		return nil, fmt.Errorf("recipe %s: %w", step.RecipeID, stepgraph.ErrNotFound)
	}

	existing := make(map[int]bool)
	next := 1
	for _, st := range s.stepsOf(step.RecipeID) {
		existing[st.StepNum] = true
		next = max(next, st.StepNum+1)
	}
	for _, n := range usesSteps {
		if !existing[n] {
			return nil, fmt.Errorf("step %d: %w", n, stepgraph.ErrUnknownStep)
		}
	}

	if step.ID == "" {
		step.ID = uuid.NewString()
	}
	if _, ok := s.steps[step.ID]; ok {
		return nil, fmt.Errorf("step %s already exists", step.ID)
	}
	step.StepNum = next
	step.Created = s.now()
	s.steps[step.ID] = step

	for _, n := range usesSteps {
		e := models.StepOutputUse{RecipeID: step.RecipeID, OutputStepNum: n, InputStepNum: next}
		if !slices.Contains(s.edges, e) {
			s.edges = append(s.edges, e)
		}
	}
	return &step, nil
}

// DeleteStepCascade implements stepgraph.StepStore.
func (s *Store) DeleteStepCascade(ctx context.Context, recipeID string, stepNum int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.edges {
		if e.RecipeID == recipeID && e.OutputStepNum == stepNum {
			return fmt.Errorf("step %d used by step %d: %w", stepNum, e.InputStepNum, stepgraph.ErrHasDependents)
		}
	}

	s.edges = slices.DeleteFunc(s.edges, func(e models.StepOutputUse) bool {
		return e.RecipeID == recipeID && e.InputStepNum == stepNum
	})
	s.ingredients = slices.DeleteFunc(s.ingredients, func(i models.Ingredient) bool {
		return i.RecipeID == recipeID && i.StepNum == stepNum
	})
	for id, st := range s.steps {
		if st.RecipeID == recipeID && st.StepNum == stepNum {
			delete(s.steps, id)
		}
	}
	return nil
}

// SwapStepNums implements stepgraph.StepStore.
func (s *Store) SwapStepNums(ctx context.Context, recipeID, stepIDA string, numA int, stepIDB string, numB int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, okA := s.steps[stepIDA]
	b, okB := s.steps[stepIDB]
	if !okA || !okB || a.RecipeID != recipeID || b.RecipeID != recipeID {
		return fmt.Errorf("swap %s/%s in recipe %s: %w", stepIDA, stepIDB, recipeID, stepgraph.ErrNotFound)
	}
	if a.StepNum != numA || b.StepNum != numB {
		return fmt.Errorf("swap steps %d/%d in recipe %s: %w", numA, numB, recipeID, stepgraph.ErrStepMoved)
	}

	swap := func(n int) int {
		switch n {
		case a.StepNum:
			return b.StepNum
		case b.StepNum:
			return a.StepNum
		}
		return n
	}
	for i, e := range s.edges {
		if e.RecipeID == recipeID {
			s.edges[i].OutputStepNum = swap(e.OutputStepNum)
			s.edges[i].InputStepNum = swap(e.InputStepNum)
		}
	}
	for i, ing := range s.ingredients {
		if ing.RecipeID == recipeID {
			s.ingredients[i].StepNum = swap(ing.StepNum)
		}
	}

	a.StepNum, b.StepNum = b.StepNum, a.StepNum
	s.steps[a.ID] = a
	s.steps[b.ID] = b
	return nil
}

// AddIngredients attaches parsed ingredients to a step.
func (s *Store) AddIngredients(ctx context.Context, recipeID string, stepNum int, items []models.Ingredient) ([]models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, st := range s.steps {
		if st.RecipeID == recipeID && st.StepNum == stepNum {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("step %d in recipe %s: %w", stepNum, recipeID, stepgraph.ErrNotFound)
	}

	out := make([]models.Ingredient, len(items))
	for i, item := range items {
		item.ID = uuid.NewString()
		item.RecipeID = recipeID
		item.StepNum = stepNum
		s.ingredients = append(s.ingredients, item)
		out[i] = item
	}
	return out, nil
}

// ListIngredients returns the ingredients attached to a step.
func (s *Store) ListIngredients(ctx context.Context, recipeID string, stepNum int) ([]models.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Ingredient
	for _, ing := range s.ingredients {
		if ing.RecipeID == recipeID && ing.StepNum == stepNum {
			out = append(out, ing)
		}
	}
	return out, nil
}

// Snapshot is a copy of every row in the store.
type Snapshot struct {
	Steps       []models.RecipeStep
	Edges       []models.StepOutputUse
	Ingredients []models.Ingredient
}

// Snapshot returns a deterministic copy of all steps, edges and ingredients.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Edges:       slices.Clone(s.edges),
		Ingredients: slices.Clone(s.ingredients),
	}
	for _, st := range s.steps {
		snap.Steps = append(snap.Steps, st)
	}
	slices.SortFunc(snap.Steps, func(a, b models.RecipeStep) int {
		return cmp.Or(cmp.Compare(a.RecipeID, b.RecipeID), cmp.Compare(a.StepNum, b.StepNum))
	})
	slices.SortFunc(snap.Edges, func(a, b models.StepOutputUse) int {
		return cmp.Or(
			cmp.Compare(a.RecipeID, b.RecipeID),
			cmp.Compare(a.OutputStepNum, b.OutputStepNum),
			cmp.Compare(a.InputStepNum, b.InputStepNum))
	})
	return snap
}

// stepsOf returns recipeID's steps ordered by StepNum. Caller holds the lock.
func (s *Store) stepsOf(recipeID string) []models.RecipeStep {
	var out []models.RecipeStep
	for _, st := range s.steps {
		if st.RecipeID == recipeID {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b models.RecipeStep) int { return cmp.Compare(a.StepNum, b.StepNum) })
	return out
}

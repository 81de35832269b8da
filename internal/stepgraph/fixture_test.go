package stepgraph_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/raphaelgruber/recipebox/internal/memstore"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/stretchr/testify/require"
)

// quietLogger discards output so test logs stay readable.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *memstore.Store
	creator *stepgraph.CreationService
	deleter *stepgraph.DeletionService
	mover   *stepgraph.ReorderService
	graph   *stepgraph.DependencyGraph
}

func newFixture(t *testing.T, recipeIDs ...string) *fixture {
	t.Helper()
	store := memstore.New()
	for _, id := range recipeIDs {
		_, err := store.CreateRecipe(context.Background(), models.RecipeInput{ID: id, Title: "Recipe " + id})
		require.NoError(t, err)
	}
	return &fixture{
		store:   store,
		creator: stepgraph.NewCreationService(store, quietLogger()),
		deleter: stepgraph.NewDeletionService(store, quietLogger()),
		mover:   stepgraph.NewReorderService(store, quietLogger()),
		graph:   stepgraph.NewDependencyGraph(store),
	}
}

// addStep creates a step and returns its ID.
func (f *fixture) addStep(t *testing.T, recipeID, description string, uses ...int) string {
	t.Helper()
	step, err := f.creator.CreateStep(context.Background(), recipeID, stepgraph.CreateStepRequest{
		Description: description,
		UsesSteps:   uses,
	})
	require.NoError(t, err)
	return step.ID
}

// diamond builds steps 1..4 where 2 and 3 use 1 and 4 uses 2 and 3.
func (f *fixture) diamond(t *testing.T, recipeID string) []string {
	t.Helper()
	return []string{
		f.addStep(t, recipeID, "make the dough"),
		f.addStep(t, recipeID, "shape the base", 1),
		f.addStep(t, recipeID, "prepare the filling", 1),
		f.addStep(t, recipeID, "assemble and bake", 2, 3),
	}
}

func (f *fixture) stepNums(t *testing.T, recipeID string) []int {
	t.Helper()
	steps, err := f.store.ListSteps(context.Background(), recipeID)
	require.NoError(t, err)
	nums := make([]int, len(steps))
	for i, s := range steps {
		nums[i] = s.StepNum
	}
	return nums
}

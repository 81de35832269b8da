package stepgraph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/recipebox/internal/memstore"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBlocked(t *testing.T, err error, stepNum int, blocking []int) {
	t.Helper()
	var blocked *stepgraph.DeletionBlockedError
	require.True(t, errors.As(err, &blocked), "expected DeletionBlockedError, got %v", err)
	assert.Equal(t, stepNum, blocked.StepNum)
	assert.Equal(t, blocking, blocked.BlockingStepNums)
}

func TestDeleteStepBlockedWithoutMutation(t *testing.T) {
	f := newFixture(t, "pie")
	ctx := context.Background()
	ids := f.diamond(t, "pie")
	_, err := f.store.AddIngredients(ctx, "pie", 1, []models.Ingredient{{Name: "flour"}})
	require.NoError(t, err)

	before := f.store.Snapshot()

	err = f.deleter.DeleteStep(ctx, "pie", ids[0])
	requireBlocked(t, err, 1, []int{2, 3})
	assert.Equal(t, "Cannot delete Step 1 because it is used by Steps 2 and 3", err.Error())

	assert.Equal(t, before, f.store.Snapshot(), "blocked delete must not mutate")
}

func TestDeleteStepCascades(t *testing.T) {
	f := newFixture(t, "pie")
	ctx := context.Background()
	ids := f.diamond(t, "pie")
	_, err := f.store.AddIngredients(ctx, "pie", 4, []models.Ingredient{{Name: "egg wash"}})
	require.NoError(t, err)
	_, err = f.store.AddIngredients(ctx, "pie", 2, []models.Ingredient{{Name: "flour"}})
	require.NoError(t, err)

	require.NoError(t, f.deleter.DeleteStep(ctx, "pie", ids[3]))

	snap := f.store.Snapshot()
	assert.Equal(t, []int{1, 2, 3}, f.stepNums(t, "pie"))
	for _, e := range snap.Edges {
		assert.NotEqual(t, 4, e.InputStepNum, "outgoing edges of deleted step must be gone")
	}
	assert.Len(t, snap.Edges, 2)

	ings, err := f.store.ListIngredients(ctx, "pie", 4)
	require.NoError(t, err)
	assert.Empty(t, ings)
	ings, err = f.store.ListIngredients(ctx, "pie", 2)
	require.NoError(t, err)
	assert.Len(t, ings, 1, "ingredients of other steps survive")
}

func TestDeleteStepDiamond(t *testing.T) {
	f := newFixture(t, "pie")
	ctx := context.Background()
	ids := f.diamond(t, "pie")

	requireBlocked(t, f.deleter.DeleteStep(ctx, "pie", ids[0]), 1, []int{2, 3})
	requireBlocked(t, f.deleter.DeleteStep(ctx, "pie", ids[1]), 2, []int{4})
	requireBlocked(t, f.deleter.DeleteStep(ctx, "pie", ids[2]), 3, []int{4})

	require.NoError(t, f.deleter.DeleteStep(ctx, "pie", ids[3]))

	// Step 1 is still used by 2 and 3.
	requireBlocked(t, f.deleter.DeleteStep(ctx, "pie", ids[0]), 1, []int{2, 3})

	require.NoError(t, f.deleter.DeleteStep(ctx, "pie", ids[1]))
	requireBlocked(t, f.deleter.DeleteStep(ctx, "pie", ids[0]), 1, []int{3})
	require.NoError(t, f.deleter.DeleteStep(ctx, "pie", ids[2]))
	require.NoError(t, f.deleter.DeleteStep(ctx, "pie", ids[0]))

	snap := f.store.Snapshot()
	assert.Empty(t, snap.Steps)
	assert.Empty(t, snap.Edges)
}

func TestDeleteStepSequentialLaw(t *testing.T) {
	f := newFixture(t, "soup")
	ctx := context.Background()
	producer := f.addStep(t, "soup", "make stock")
	consumer := f.addStep(t, "soup", "simmer vegetables in stock", 1)

	requireBlocked(t, f.deleter.DeleteStep(ctx, "soup", producer), 1, []int{2})
	require.NoError(t, f.deleter.DeleteStep(ctx, "soup", consumer))
	require.NoError(t, f.deleter.DeleteStep(ctx, "soup", producer))
}

func TestDeleteStepCrossRecipeIsolation(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	idsA := f.diamond(t, "a")
	f.diamond(t, "b")

	edgesB, err := f.store.ListEdges(ctx, "b")
	require.NoError(t, err)
	stepsB, err := f.store.ListSteps(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, f.deleter.DeleteStep(ctx, "a", idsA[3]))

	afterEdges, err := f.store.ListEdges(ctx, "b")
	require.NoError(t, err)
	afterSteps, err := f.store.ListSteps(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, edgesB, afterEdges)
	assert.Equal(t, stepsB, afterSteps)
}

func TestDeleteStepNotFound(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	idA := f.addStep(t, "a", "step in a")

	t.Run("unknown id", func(t *testing.T) {
		err := f.deleter.DeleteStep(ctx, "a", "nope")
		assert.ErrorIs(t, err, stepgraph.ErrNotFound)
	})

	t.Run("step of another recipe", func(t *testing.T) {
		err := f.deleter.DeleteStep(ctx, "b", idA)
		assert.ErrorIs(t, err, stepgraph.ErrNotFound)
		assert.Equal(t, []int{1}, f.stepNums(t, "a"))
	})
}

func TestDeleteStepMessageIgnoresTitles(t *testing.T) {
	ctx := context.Background()
	messages := make([]string, 0, 2)

	for _, titled := range []bool{false, true} {
		f := newFixture(t, "pie")
		req := func(desc string, uses ...int) stepgraph.CreateStepRequest {
			r := stepgraph.CreateStepRequest{Description: desc, UsesSteps: uses}
			if titled {
				title := "Title for " + desc
				r.StepTitle = &title
			}
			return r
		}
		first, err := f.creator.CreateStep(ctx, "pie", req("one"))
		require.NoError(t, err)
		_, err = f.creator.CreateStep(ctx, "pie", req("two", 1))
		require.NoError(t, err)
		_, err = f.creator.CreateStep(ctx, "pie", req("three", 1))
		require.NoError(t, err)
		_, err = f.creator.CreateStep(ctx, "pie", req("four", 1))
		require.NoError(t, err)

		err = f.deleter.DeleteStep(ctx, "pie", first.ID)
		require.Error(t, err)
		messages = append(messages, err.Error())
	}

	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, "Cannot delete Step 1 because it is used by Steps 2, 3, and 4", messages[0])
}

// racingStore adds a consumer between the deletion check and the cascade.
type racingStore struct {
	*memstore.Store
	raced bool
}

func (s *racingStore) DeleteStepCascade(ctx context.Context, recipeID string, stepNum int) error {
	if !s.raced {
		s.raced = true
		if _, err := s.CreateStepWithEdges(ctx, models.RecipeStep{RecipeID: recipeID, Description: "late consumer"}, []int{stepNum}); err != nil {
			return err
		}
	}
	return s.Store.DeleteStepCascade(ctx, recipeID, stepNum)
}

func TestDeleteStepConsumerAddedConcurrently(t *testing.T) {
	f := newFixture(t, "pie")
	ctx := context.Background()
	id := f.addStep(t, "pie", "one")

	deleter := stepgraph.NewDeletionService(&racingStore{Store: f.store}, quietLogger())
	err := deleter.DeleteStep(ctx, "pie", id)
	requireBlocked(t, err, 1, []int{2})
	assert.Equal(t, []int{1, 2}, f.stepNums(t, "pie"))
}

// failingStore fails every edge listing.
type failingStore struct {
	*memstore.Store
}

func (s failingStore) ListEdges(ctx context.Context, recipeID string) ([]models.StepOutputUse, error) {
	return nil, errors.New("connection reset")
}

func TestDeleteStepStoreFailure(t *testing.T) {
	f := newFixture(t, "pie")
	id := f.addStep(t, "pie", "one")

	deleter := stepgraph.NewDeletionService(failingStore{Store: f.store}, quietLogger())
	err := deleter.DeleteStep(context.Background(), "pie", id)
	require.Error(t, err)
	assert.ErrorIs(t, err, stepgraph.ErrStoreFailure)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, []int{1}, f.stepNums(t, "pie"))
}

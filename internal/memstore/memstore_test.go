package memstore_test

import (
	"context"
	"testing"

	"github.com/raphaelgruber/recipebox/internal/memstore"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, recipeIDs ...string) *memstore.Store {
	t.Helper()
	s := memstore.New()
	for _, id := range recipeIDs {
		_, err := s.CreateRecipe(context.Background(), models.RecipeInput{ID: id, Title: id})
		require.NoError(t, err)
	}
	return s
}

func addStep(t *testing.T, s *memstore.Store, recipeID, desc string, uses ...int) *models.RecipeStep {
	t.Helper()
	st, err := s.CreateStepWithEdges(context.Background(), models.RecipeStep{RecipeID: recipeID, Description: desc}, uses)
	require.NoError(t, err)
	return st
}

func TestCreateRecipeDuplicateID(t *testing.T) {
	s := newStore(t, "soup")
	_, err := s.CreateRecipe(context.Background(), models.RecipeInput{ID: "soup", Title: "Again"})
	assert.Error(t, err)
}

func TestCreateStepNumbering(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "bread")

	addStep(t, s, "bread", "Mix")
	addStep(t, s, "bread", "Knead")
	third := addStep(t, s, "bread", "Bake")
	assert.Equal(t, 3, third.StepNum)

	// Numbers are not reused after a deletion in the middle.
	require.NoError(t, s.DeleteStepCascade(ctx, "bread", 2))
	next := addStep(t, s, "bread", "Cool")
	assert.Equal(t, 4, next.StepNum)
}

func TestCreateStepUnknownDependency(t *testing.T) {
	s := newStore(t, "bread")
	addStep(t, s, "bread", "Mix")

	_, err := s.CreateStepWithEdges(context.Background(), models.RecipeStep{RecipeID: "bread", Description: "Bake"}, []int{1, 7})
	require.ErrorIs(t, err, stepgraph.ErrUnknownStep)
	assert.Len(t, s.Snapshot().Steps, 1)
	assert.Empty(t, s.Snapshot().Edges)
}

func TestCreateStepUnknownRecipe(t *testing.T) {
	s := newStore(t)
	_, err := s.CreateStepWithEdges(context.Background(), models.RecipeStep{RecipeID: "nope", Description: "Mix"}, nil)
	assert.ErrorIs(t, err, stepgraph.ErrNotFound)
}

func TestDeleteStepCascade(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "bread")
	addStep(t, s, "bread", "Mix")
	addStep(t, s, "bread", "Knead", 1)
	_, err := s.AddIngredients(ctx, "bread", 2, []models.Ingredient{{Name: "flour"}})
	require.NoError(t, err)

	err = s.DeleteStepCascade(ctx, "bread", 1)
	require.ErrorIs(t, err, stepgraph.ErrHasDependents)
	assert.Len(t, s.Snapshot().Steps, 2)

	require.NoError(t, s.DeleteStepCascade(ctx, "bread", 2))
	snap := s.Snapshot()
	assert.Len(t, snap.Steps, 1)
	assert.Empty(t, snap.Edges)
	assert.Empty(t, snap.Ingredients)
}

func TestSwapStepNumsRemapsEdgesAndIngredients(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "tea")
	boil := addStep(t, s, "tea", "Boil water")
	steep := addStep(t, s, "tea", "Steep", 1)
	_, err := s.AddIngredients(ctx, "tea", 1, []models.Ingredient{{Name: "water"}})
	require.NoError(t, err)

	require.NoError(t, s.SwapStepNums(ctx, "tea", boil.ID, 1, steep.ID, 2))

	got, err := s.GetStep(ctx, "tea", boil.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StepNum)

	snap := s.Snapshot()
	assert.Equal(t, []models.StepOutputUse{{RecipeID: "tea", OutputStepNum: 2, InputStepNum: 1}}, snap.Edges)
	require.Len(t, snap.Ingredients, 1)
	assert.Equal(t, 2, snap.Ingredients[0].StepNum)
}

func TestSwapStepNumsAcrossRecipes(t *testing.T) {
	s := newStore(t, "tea", "soup")
	a := addStep(t, s, "tea", "Boil water")
	b := addStep(t, s, "soup", "Chop")

	err := s.SwapStepNums(context.Background(), "tea", a.ID, 1, b.ID, 1)
	assert.ErrorIs(t, err, stepgraph.ErrNotFound)
}

func TestSwapStepNumsRefusesStaleNumbers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "tea")
	one := addStep(t, s, "tea", "Boil water")
	two := addStep(t, s, "tea", "Warm pot")
	three := addStep(t, s, "tea", "Steep", 1)
	require.NoError(t, s.SwapStepNums(ctx, "tea", one.ID, 1, two.ID, 2))
	before := s.Snapshot()

	// three still expects "Warm pot" at 2, but that step is now 1.
	err := s.SwapStepNums(ctx, "tea", three.ID, 3, two.ID, 2)
	require.ErrorIs(t, err, stepgraph.ErrStepMoved)
	assert.Equal(t, before, s.Snapshot())
}

func TestRecipesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "tea", "soup")
	addStep(t, s, "tea", "Boil water")
	addStep(t, s, "soup", "Chop")
	addStep(t, s, "soup", "Simmer", 1)

	// Step 1 of tea has no dependents even though step 1 of soup does.
	require.NoError(t, s.DeleteStepCascade(ctx, "tea", 1))

	edges, err := s.ListEdges(ctx, "soup")
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestAddIngredientsMissingStep(t *testing.T) {
	s := newStore(t, "tea")
	_, err := s.AddIngredients(context.Background(), "tea", 3, []models.Ingredient{{Name: "sugar"}})
	assert.ErrorIs(t, err, stepgraph.ErrNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "tea", "soup")
	addStep(t, s, "tea", "Boil water")
	addStep(t, s, "tea", "Steep", 1)
	addStep(t, s, "soup", "Chop")

	ok, err := s.DeleteRecipe(ctx, "tea")
	require.NoError(t, err)
	assert.True(t, ok)

	r, err := s.GetRecipe(ctx, "tea")
	require.NoError(t, err)
	assert.Nil(t, r)

	snap := s.Snapshot()
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, "soup", snap.Steps[0].RecipeID)
	assert.Empty(t, snap.Edges)

	ok, err = s.DeleteRecipe(ctx, "tea")
	require.NoError(t, err)
	assert.False(t, ok)
}

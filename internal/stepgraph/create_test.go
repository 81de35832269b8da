package stepgraph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStepAssignsNextNumber(t *testing.T) {
	f := newFixture(t, "pie")
	ctx := context.Background()

	title := "  Dough  "
	duration := 15
	step, err := f.creator.CreateStep(ctx, "pie", stepgraph.CreateStepRequest{
		Description: "Mix flour and butter",
		StepTitle:   &title,
		Duration:    &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, step.StepNum)
	require.NotNil(t, step.StepTitle)
	assert.Equal(t, "Dough", *step.StepTitle)
	assert.Equal(t, 15, *step.Duration)

	second, err := f.creator.CreateStep(ctx, "pie", stepgraph.CreateStepRequest{
		Description: "Roll out",
		UsesSteps:   []int{1, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.StepNum)
	assert.Nil(t, second.StepTitle)

	edges, err := f.store.ListEdges(ctx, "pie")
	require.NoError(t, err)
	assert.Equal(t, []models.StepOutputUse{{RecipeID: "pie", OutputStepNum: 1, InputStepNum: 2}}, edges)
}

func TestCreateStepAfterGapDoesNotReuseNumber(t *testing.T) {
	f := newFixture(t, "pie")
	ctx := context.Background()

	f.addStep(t, "pie", "one")
	second := f.addStep(t, "pie", "two")
	f.addStep(t, "pie", "three")
	require.NoError(t, f.deleter.DeleteStep(ctx, "pie", second))

	step, err := f.creator.CreateStep(ctx, "pie", stepgraph.CreateStepRequest{Description: "four", UsesSteps: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, 4, step.StepNum)
	assert.Equal(t, []int{1, 3, 4}, f.stepNums(t, "pie"))
}

func TestCreateStepValidation(t *testing.T) {
	f := newFixture(t, "pie")
	f.addStep(t, "pie", "one")

	zero := 0
	tests := []struct {
		name  string
		req   stepgraph.CreateStepRequest
		field string
	}{
		{"blank description", stepgraph.CreateStepRequest{Description: "   "}, "description"},
		{"non-positive duration", stepgraph.CreateStepRequest{Description: "x", Duration: &zero}, "duration"},
		{"unknown dependency", stepgraph.CreateStepRequest{Description: "x", UsesSteps: []int{1, 7}}, "uses_steps"},
		{"negative dependency", stepgraph.CreateStepRequest{Description: "x", UsesSteps: []int{-1}}, "uses_steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.Snapshot()

			_, err := f.creator.CreateStep(context.Background(), "pie", tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, stepgraph.ErrInvalidInput)

			var verr *stepgraph.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)

			assert.Equal(t, before, f.store.Snapshot(), "rejected create must not mutate")
		})
	}
}

func TestCreateStepUnknownDependencyMessage(t *testing.T) {
	f := newFixture(t, "pie")
	f.addStep(t, "pie", "one")

	_, err := f.creator.CreateStep(context.Background(), "pie", stepgraph.CreateStepRequest{Description: "x", UsesSteps: []int{5, 9}})
	require.Error(t, err)
	assert.Equal(t, "uses_steps: steps 5, 9 do not exist in this recipe", err.Error())
}

func TestCreateStepDependenciesAreRecipeScoped(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.addStep(t, "a", "only in a")

	_, err := f.creator.CreateStep(context.Background(), "b", stepgraph.CreateStepRequest{Description: "x", UsesSteps: []int{1}})
	assert.ErrorIs(t, err, stepgraph.ErrInvalidInput)
}

func TestCreateStepStoreFailure(t *testing.T) {
	f := newFixture(t)

	// Recipe does not exist: the memory store refuses the write.
	_, err := f.creator.CreateStep(context.Background(), "missing", stepgraph.CreateStepRequest{Description: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, stepgraph.ErrStoreFailure)
}

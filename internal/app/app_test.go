package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{LLMProvider: config.ProviderNone}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(ctx, cfg, logger, Options{Memory: true})
	require.NoError(t, err)
	defer a.Close(ctx)

	r, err := a.Service.CreateRecipe(ctx, models.RecipeInput{Title: "Toast"})
	require.NoError(t, err)

	events := a.Events.Subscribe(ctx, r.ID)
	_, err = a.Service.CreateStep(ctx, r.ID, stepgraph.CreateStepRequest{Description: "Slice bread"})
	require.NoError(t, err)

	evt := <-events
	assert.Equal(t, "step.created", evt.Type)
	require.NotNil(t, a.Metrics.Snapshot().StepCreate)

	assert.Error(t, a.WipeData(ctx), "wipe needs a database")
}

func TestNewRejectsMisconfiguredProvider(t *testing.T) {
	cfg := config.Config{LLMProvider: config.ProviderOpenAI}
	_, err := New(context.Background(), cfg, nil, Options{Memory: true})
	assert.Error(t, err)
}

// Package stepgraph maintains the per-recipe step dependency graph: it
// answers who depends on a step, creates steps together with their declared
// dependencies, refuses to delete steps that other steps still consume,
// cascades deletions, and swaps adjacent steps.
//
// All persistence goes through a StepStore. Every mutating StepStore method
// must be atomic: either all of its effects are visible or none are.
package stepgraph

import (
	"context"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// StepStore persists steps, dependency edges and step-scoped ingredients.
type StepStore interface {
	// GetStep returns the step with stepID in recipeID, or (nil, nil) if no
	// such step exists in that recipe.
	GetStep(ctx context.Context, recipeID, stepID string) (*models.RecipeStep, error)

	// ListSteps returns the recipe's steps ordered by StepNum.
	ListSteps(ctx context.Context, recipeID string) ([]models.RecipeStep, error)

	// ListEdges returns every StepOutputUse scoped to recipeID.
	ListEdges(ctx context.Context, recipeID string) ([]models.StepOutputUse, error)

	// CreateStepWithEdges assigns max(StepNum)+1 to step (not count+1, which
	// collides after a deletion in the middle), persists it
	// and one edge per element of usesSteps. Returns ErrUnknownStep if any
	// element of usesSteps does not name an existing step at commit time.
	CreateStepWithEdges(ctx context.Context, step models.RecipeStep, usesSteps []int) (*models.RecipeStep, error)

	// DeleteStepCascade removes the step's outgoing edges (where it is the
	// consumer), its ingredients and the step row. Returns ErrHasDependents
	// without mutating anything if another step consumes it at commit time.
	DeleteStepCascade(ctx context.Context, recipeID string, stepNum int) error

	// SwapStepNums exchanges the StepNum of two steps of the same recipe,
	// provided step A still holds numA and step B still holds numB at commit
	// time; otherwise it returns ErrStepMoved without mutating anything.
	// Edges and ingredients keep pointing at the same steps.
	SwapStepNums(ctx context.Context, recipeID, stepIDA string, numA int, stepIDB string, numB int) error
}

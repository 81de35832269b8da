package stepgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DeletionState is the progress of a single deletion attempt.
type DeletionState string

const (
	DeletionRequested DeletionState = "requested"
	DeletionBlocked   DeletionState = "blocked"
	DeletionCascading DeletionState = "cascading"
	DeletionDeleted   DeletionState = "deleted"
)

// DeletionService removes steps while preserving the deletion-safety
// invariant: a step that another step consumes is never deleted.
type DeletionService struct {
	store  StepStore
	graph  *DependencyGraph
	logger *slog.Logger
}

// NewDeletionService creates a step deletion service.
func NewDeletionService(store StepStore, logger *slog.Logger) *DeletionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeletionService{
		store:  store,
		graph:  NewDependencyGraph(store),
		logger: logger,
	}
}

// DeleteStep deletes stepID from recipeID together with its outgoing edges
// and its ingredients.
//
// Returns an error wrapping ErrNotFound if the step is not part of the
// recipe, and a *DeletionBlockedError if other steps consume it; in both
// cases nothing is mutated.
func (s *DeletionService) DeleteStep(ctx context.Context, recipeID, stepID string) error {
	log := s.logger.With("recipe", recipeID, "step", stepID)
	log.Debug("deletion state", "state", DeletionRequested)

	step, err := s.store.GetStep(ctx, recipeID, stepID)
	if err != nil {
		return storeFailure("get step", err)
	}
	if step == nil {
		return fmt.Errorf("step %s in recipe %s: %w", stepID, recipeID, ErrNotFound)
	}

	dependents, err := s.graph.DependentsOf(ctx, recipeID, step.StepNum)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		log.Debug("deletion state", "state", DeletionBlocked, "step_num", step.StepNum, "blocking", dependents)
		return &DeletionBlockedError{StepNum: step.StepNum, BlockingStepNums: dependents}
	}

	log.Debug("deletion state", "state", DeletionCascading, "step_num", step.StepNum)
	if err := s.store.DeleteStepCascade(ctx, recipeID, step.StepNum); err != nil {
		if errors.Is(err, ErrHasDependents) {
			// A consumer was added after the check above; report it.
			return s.blockedAfterRace(ctx, recipeID, step.StepNum, err)
		}
		return storeFailure("delete step", err)
	}

	log.Debug("deletion state", "state", DeletionDeleted, "step_num", step.StepNum)
	log.Info("step deleted", "step_num", step.StepNum)
	return nil
}

func (s *DeletionService) blockedAfterRace(ctx context.Context, recipeID string, stepNum int, cause error) error {
	dependents, err := s.graph.DependentsOf(ctx, recipeID, stepNum)
	if err != nil {
		return err
	}
	if len(dependents) == 0 {
		// The consumer vanished again; surface the store's refusal as is.
		return storeFailure("delete step", cause)
	}
	s.logger.Debug("deletion state", "recipe", recipeID, "state", DeletionBlocked, "step_num", stepNum, "blocking", dependents)
	return &DeletionBlockedError{StepNum: stepNum, BlockingStepNums: dependents}
}

package stepgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Direction is where a step moves in the recipe order.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts "up" or "down", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	default:
		return "", &ValidationError{Field: "direction", Message: fmt.Sprintf("must be %q or %q, got %q", Up, Down, s)}
	}
}

// ReorderService swaps a step with its neighbour.
//
// Dependency edges are not re-validated: moving a consumer above its producer
// is allowed and leaves an edge whose producer has the higher number. Such
// edges are visible through Graph.OrderingViolations.
type ReorderService struct {
	store  StepStore
	logger *slog.Logger
}

// NewReorderService creates a step reorder service.
func NewReorderService(store StepStore, logger *slog.Logger) *ReorderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReorderService{store: store, logger: logger}
}

// Reorder swaps stepID with the step numbered one above (Up) or one below
// (Down). If no step holds that number, or either step is moved by another
// call before the swap commits, the call is a no-op and reports
// moved == false without error.
func (s *ReorderService) Reorder(ctx context.Context, recipeID, stepID string, dir Direction) (moved bool, err error) {
	if dir != Up && dir != Down {
		return false, &ValidationError{Field: "direction", Message: fmt.Sprintf("unknown direction %q", dir)}
	}

	step, err := s.store.GetStep(ctx, recipeID, stepID)
	if err != nil {
		return false, storeFailure("get step", err)
	}
	if step == nil {
		return false, fmt.Errorf("step %s in recipe %s: %w", stepID, recipeID, ErrNotFound)
	}

	target := step.StepNum + 1
	if dir == Up {
		target = step.StepNum - 1
	}
	if target <= 0 {
		s.logger.Debug("reorder no-op at boundary", "recipe", recipeID, "step_num", step.StepNum, "direction", dir)
		return false, nil
	}

	steps, err := s.store.ListSteps(ctx, recipeID)
	if err != nil {
		return false, storeFailure("list steps", err)
	}
	neighbourID := ""
	for _, st := range steps {
		if st.StepNum == target {
			neighbourID = st.ID
			break
		}
	}
	if neighbourID == "" {
		s.logger.Debug("reorder no-op, no neighbour", "recipe", recipeID, "step_num", step.StepNum, "direction", dir)
		return false, nil
	}

	err = s.store.SwapStepNums(ctx, recipeID, step.ID, step.StepNum, neighbourID, target)
	if errors.Is(err, ErrStepMoved) {
		s.logger.Warn("reorder no-op, step moved concurrently", "recipe", recipeID, "step", step.ID, "direction", dir)
		return false, nil
	}
	if err != nil {
		return false, storeFailure("swap steps", err)
	}

	s.logger.Info("step moved",
		"recipe", recipeID,
		"step", step.ID,
		"from", step.StepNum,
		"to", target)
	return true, nil
}

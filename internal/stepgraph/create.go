package stepgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// CreateStepRequest is the validated input for creating a step.
type CreateStepRequest struct {
	Description string
	StepTitle   *string
	Duration    *int  // minutes
	UsesSteps   []int // step numbers whose output the new step consumes
}

// CreationService validates and persists new steps with their incoming edges.
type CreationService struct {
	store  StepStore
	logger *slog.Logger
}

// NewCreationService creates a step creation service.
func NewCreationService(store StepStore, logger *slog.Logger) *CreationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreationService{
		store:  store,
		logger: logger,
	}
}

// CreateStep appends a step to recipeID that consumes the output of the steps
// in req.UsesSteps. The step and its edges are stored atomically. The new
// number is the highest existing StepNum plus one, not the step count plus
// one, so numbers freed by a deletion are never handed out again.
func (s *CreationService) CreateStep(ctx context.Context, recipeID string, req CreateStepRequest) (*models.RecipeStep, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, &ValidationError{Field: "description", Message: "is required"}
	}
	if req.Duration != nil && *req.Duration <= 0 {
		return nil, &ValidationError{Field: "duration", Message: "must be a positive number of minutes"}
	}

	uses := normalizeStepNums(req.UsesSteps)
	for _, n := range uses {
		if n <= 0 {
			return nil, &ValidationError{Field: "uses_steps", Message: fmt.Sprintf("step %d is not a valid step number", n)}
		}
	}

	if len(uses) > 0 {
		steps, err := s.store.ListSteps(ctx, recipeID)
		if err != nil {
			return nil, storeFailure("list steps", err)
		}
		existing := make(map[int]bool, len(steps))
		for _, st := range steps {
			existing[st.StepNum] = true
		}
		var missing []int
		for _, n := range uses {
			if !existing[n] {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return nil, unknownDependencies(missing)
		}
	}

	var title *string
	if req.StepTitle != nil {
		if t := strings.TrimSpace(*req.StepTitle); t != "" {
			title = &t
		}
	}

	created, err := s.store.CreateStepWithEdges(ctx, models.RecipeStep{
		RecipeID:    recipeID,
		StepTitle:   title,
		Description: description,
		Duration:    req.Duration,
	}, uses)
	if err != nil {
		if errors.Is(err, ErrUnknownStep) {
			// A dependency was deleted between validation and commit.
			return nil, &ValidationError{Field: "uses_steps", Message: err.Error()}
		}
		return nil, storeFailure("create step", err)
	}

	s.logger.Info("step created",
		"recipe", recipeID,
		"step", created.ID,
		"step_num", created.StepNum,
		"uses_steps", uses)
	return created, nil
}

func unknownDependencies(missing []int) error {
	parts := make([]string, len(missing))
	for i, n := range missing {
		parts[i] = strconv.Itoa(n)
	}
	msg := fmt.Sprintf("step %s does not exist in this recipe", parts[0])
	if len(parts) > 1 {
		msg = fmt.Sprintf("steps %s do not exist in this recipe", strings.Join(parts, ", "))
	}
	return &ValidationError{Field: "uses_steps", Message: msg}
}

// normalizeStepNums returns nums as a sorted set.
func normalizeStepNums(nums []int) []int {
	out := slices.Clone(nums)
	slices.Sort(out)
	return slices.Compact(out)
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Compile-time interface check.
var _ stepgraph.StepStore = (*Client)(nil)

type stepRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	RecipeID    string                 `json:"recipe_id"`
	StepNum     int                    `json:"step_num"`
	StepTitle   *string                `json:"step_title,omitempty"`
	Description string                 `json:"description"`
	Duration    *int                   `json:"duration,omitempty"`
	Created     time.Time              `json:"created"`
}

func (r stepRow) model() models.RecipeStep {
	return models.RecipeStep{
		ID:          models.MustRecordIDString(r.ID),
		RecipeID:    r.RecipeID,
		StepNum:     r.StepNum,
		StepTitle:   r.StepTitle,
		Description: r.Description,
		Duration:    r.Duration,
		Created:     r.Created,
	}
}

// GetStep retrieves a step by ID, scoped to its recipe.
// Returns nil if not found.
func (c *Client) GetStep(ctx context.Context, recipeID, stepID string) (*models.RecipeStep, error) {
	results, err := query[[]stepRow](ctx, c, `
		SELECT * FROM type::record("recipe_step", $id) WHERE recipe_id = $recipe
	`, map[string]any{"id": stepID, "recipe": recipeID})
	if err != nil {
		return nil, fmt.Errorf("get step: %w", err)
	}

	rows := firstRows(results)
	if len(rows) == 0 {
		return nil, nil
	}
	st := rows[0].model()
	return &st, nil
}

// ListSteps returns the recipe's steps ordered by step number.
func (c *Client) ListSteps(ctx context.Context, recipeID string) ([]models.RecipeStep, error) {
	results, err := query[[]stepRow](ctx, c, `
		SELECT * FROM recipe_step WHERE recipe_id = $recipe ORDER BY step_num ASC
	`, map[string]any{"recipe": recipeID})
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}

	rows := firstRows(results)
	out := make([]models.RecipeStep, len(rows))
	for i, row := range rows {
		out[i] = row.model()
	}
	return out, nil
}

// ListEdges returns the recipe's dependency edges.
func (c *Client) ListEdges(ctx context.Context, recipeID string) ([]models.StepOutputUse, error) {
	results, err := query[[]models.StepOutputUse](ctx, c, `
		SELECT recipe_id, output_step_num, input_step_num FROM step_output_use
		WHERE recipe_id = $recipe
		ORDER BY output_step_num ASC, input_step_num ASC
	`, map[string]any{"recipe": recipeID})
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	return firstRows(results), nil
}

// CreateStepWithEdges creates a step numbered one past the recipe's highest
// step number, plus one edge per entry in usesSteps. The existence check and
// every write share a transaction, so a producer deleted concurrently makes
// the whole create fail with stepgraph.ErrUnknownStep.
func (c *Client) CreateStepWithEdges(ctx context.Context, step models.RecipeStep, usesSteps []int) (*models.RecipeStep, error) {
	id := step.ID
	if id == "" {
		id = uuid.NewString()
	}
	if usesSteps == nil {
		usesSteps = []int{}
	}

	sql := `
		BEGIN TRANSACTION;

		IF !record::exists(type::record("recipe", $recipe)) {
			THROW "recipe not found"
		};

		LET $existing = (SELECT VALUE step_num FROM recipe_step WHERE recipe_id = $recipe);
		LET $missing = array::complement($uses, $existing);
		IF array::len($missing) > 0 {
			THROW "unknown step " + <string> $missing
		};

		LET $next = math::max(array::append($existing, 0)) + 1;

		CREATE type::record("recipe_step", $id) SET
			recipe_id = $recipe,
			step_num = $next,
			step_title = $title ?? NONE,
			description = $description,
			duration = $duration ?? NONE;

		FOR $u IN $uses {
			CREATE step_output_use SET
				recipe_id = $recipe,
				output_step_num = $u,
				input_step_num = $next;
		};

		COMMIT TRANSACTION;
	`

	_, err := query[any](ctx, c, sql, map[string]any{
		"id":          id,
		"recipe":      step.RecipeID,
		"uses":        usesSteps,
		"title":       step.StepTitle,
		"description": step.Description,
		"duration":    step.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("create step: %w", err)
	}

	created, err := c.GetStep(ctx, step.RecipeID, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("create step: no result returned")
	}
	return created, nil
}

// DeleteStepCascade deletes the step's outgoing edges, its ingredients and
// the step itself. The dependents check runs inside the same transaction and
// aborts it with stepgraph.ErrHasDependents.
func (c *Client) DeleteStepCascade(ctx context.Context, recipeID string, stepNum int) error {
	sql := `
		BEGIN TRANSACTION;

		LET $dependents = (
			SELECT VALUE input_step_num FROM step_output_use
			WHERE recipe_id = $recipe AND output_step_num = $num
		);
		IF array::len($dependents) > 0 {
			THROW "step has dependents"
		};

		DELETE step_output_use WHERE recipe_id = $recipe AND input_step_num = $num;
		DELETE ingredient WHERE recipe_id = $recipe AND step_num = $num;
		DELETE recipe_step WHERE recipe_id = $recipe AND step_num = $num;

		COMMIT TRANSACTION;
	`

	_, err := query[any](ctx, c, sql, map[string]any{"recipe": recipeID, "num": stepNum})
	if err != nil {
		return fmt.Errorf("delete step %d: %w", stepNum, err)
	}
	return nil
}

// SwapStepNums exchanges the numbers of two steps and remaps every edge
// endpoint and ingredient so they follow their step. Each column is moved
// through the scratch number 0 to keep the unique indexes satisfied. The swap
// is refused when either step no longer holds its expected number.
func (c *Client) SwapStepNums(ctx context.Context, recipeID, stepIDA string, numA int, stepIDB string, numB int) error {
	sql := `
		BEGIN TRANSACTION;

		LET $a = (SELECT VALUE step_num FROM type::record("recipe_step", $a_id) WHERE recipe_id = $recipe)[0];
		LET $b = (SELECT VALUE step_num FROM type::record("recipe_step", $b_id) WHERE recipe_id = $recipe)[0];
		IF $a = NONE OR $b = NONE {
			THROW "step not found"
		};
		IF $a != $num_a OR $b != $num_b {
			THROW "step moved"
		};

		UPDATE type::record("recipe_step", $a_id) SET step_num = 0;
		UPDATE type::record("recipe_step", $b_id) SET step_num = $a;
		UPDATE type::record("recipe_step", $a_id) SET step_num = $b;

		UPDATE step_output_use SET output_step_num = 0 WHERE recipe_id = $recipe AND output_step_num = $a;
		UPDATE step_output_use SET input_step_num = 0 WHERE recipe_id = $recipe AND input_step_num = $a;
		UPDATE step_output_use SET output_step_num = $a WHERE recipe_id = $recipe AND output_step_num = $b;
		UPDATE step_output_use SET input_step_num = $a WHERE recipe_id = $recipe AND input_step_num = $b;
		UPDATE step_output_use SET output_step_num = $b WHERE recipe_id = $recipe AND output_step_num = 0;
		UPDATE step_output_use SET input_step_num = $b WHERE recipe_id = $recipe AND input_step_num = 0;

		UPDATE ingredient SET step_num = 0 WHERE recipe_id = $recipe AND step_num = $a;
		UPDATE ingredient SET step_num = $a WHERE recipe_id = $recipe AND step_num = $b;
		UPDATE ingredient SET step_num = $b WHERE recipe_id = $recipe AND step_num = 0;

		COMMIT TRANSACTION;
	`

	_, err := query[any](ctx, c, sql, map[string]any{
		"recipe": recipeID,
		"a_id":   stepIDA,
		"b_id":   stepIDB,
		"num_a":  numA,
		"num_b":  numB,
	})
	if err != nil {
		return fmt.Errorf("swap steps: %w", err)
	}
	return nil
}

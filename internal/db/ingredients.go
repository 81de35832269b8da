package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type ingredientRow struct {
	ID       surrealmodels.RecordID `json:"id"`
	RecipeID string                 `json:"recipe_id"`
	StepNum  int                    `json:"step_num"`
	Quantity *float64               `json:"quantity,omitempty"`
	Unit     string                 `json:"unit"`
	Name     string                 `json:"name"`
	Raw      string                 `json:"raw"`
}

func (r ingredientRow) model() models.Ingredient {
	return models.Ingredient{
		ID:       models.MustRecordIDString(r.ID),
		RecipeID: r.RecipeID,
		StepNum:  r.StepNum,
		Quantity: r.Quantity,
		Unit:     r.Unit,
		Name:     r.Name,
		Raw:      r.Raw,
	}
}

// AddIngredients attaches ingredients to the step numbered stepNum.
// Returns stepgraph.ErrNotFound if the step does not exist.
func (c *Client) AddIngredients(ctx context.Context, recipeID string, stepNum int, items []models.Ingredient) ([]models.Ingredient, error) {
	out := make([]models.Ingredient, len(items))
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		item.ID = uuid.NewString()
		item.RecipeID = recipeID
		item.StepNum = stepNum
		out[i] = item

		row := map[string]any{
			"id":   item.ID,
			"unit": item.Unit,
			"name": item.Name,
			"raw":  item.Raw,
		}
		if item.Quantity != nil {
			row["quantity"] = *item.Quantity
		}
		rows[i] = row
	}

	sql := `
		BEGIN TRANSACTION;

		LET $step = (SELECT VALUE id FROM recipe_step WHERE recipe_id = $recipe AND step_num = $num);
		IF array::len($step) = 0 {
			THROW "step not found"
		};

		FOR $item IN $items {
			CREATE type::record("ingredient", $item.id) SET
				recipe_id = $recipe,
				step_num = $num,
				quantity = $item.quantity,
				unit = $item.unit,
				name = $item.name,
				raw = $item.raw;
		};

		COMMIT TRANSACTION;
	`

	_, err := query[any](ctx, c, sql, map[string]any{
		"recipe": recipeID,
		"num":    stepNum,
		"items":  rows,
	})
	if err != nil {
		return nil, fmt.Errorf("add ingredients: %w", err)
	}
	return out, nil
}

// ListIngredients returns the ingredients attached to a step.
func (c *Client) ListIngredients(ctx context.Context, recipeID string, stepNum int) ([]models.Ingredient, error) {
	results, err := query[[]ingredientRow](ctx, c, `
		SELECT * FROM ingredient
		WHERE recipe_id = $recipe AND step_num = $num
		ORDER BY created ASC
	`, map[string]any{"recipe": recipeID, "num": stepNum})
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}

	rows := firstRows(results)
	out := make([]models.Ingredient, len(rows))
	for i, row := range rows {
		out[i] = row.model()
	}
	return out, nil
}

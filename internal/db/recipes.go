package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type recipeRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Servings    *int                   `json:"servings,omitempty"`
	Created     time.Time              `json:"created"`
}

func (r recipeRow) model() models.Recipe {
	return models.Recipe{
		ID:          models.MustRecordIDString(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Servings:    r.Servings,
		Created:     r.Created,
	}
}

// CreateRecipe creates a recipe. A random ID is assigned when input.ID is
// empty. Returns ErrRecordAlreadyExists if the ID is taken.
func (c *Client) CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error) {
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}

	// Optional fields are left out rather than sent as NULL.
	content := map[string]any{
		"title":       input.Title,
		"description": input.Description,
	}
	if input.Servings != nil {
		content["servings"] = *input.Servings
	}

	results, err := query[[]recipeRow](ctx, c, `
		CREATE type::record("recipe", $id) CONTENT $content RETURN AFTER
	`, map[string]any{"id": id, "content": content})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	rows := firstRows(results)
	if len(rows) == 0 {
		return nil, fmt.Errorf("create recipe: no result returned")
	}
	r := rows[0].model()
	return &r, nil
}

// GetRecipe retrieves a recipe by ID.
// Returns nil if not found.
func (c *Client) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	results, err := query[[]recipeRow](ctx, c, `
		SELECT * FROM type::record("recipe", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	rows := firstRows(results)
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0].model()
	return &r, nil
}

// ListRecipes returns all recipes ordered by title.
func (c *Client) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	results, err := query[[]recipeRow](ctx, c, `
		SELECT * FROM recipe ORDER BY title ASC, id ASC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	rows := firstRows(results)
	out := make([]models.Recipe, len(rows))
	for i, row := range rows {
		out[i] = row.model()
	}
	return out, nil
}

// DeleteRecipe deletes a recipe together with its steps, edges and
// ingredients in one transaction. Returns false if the recipe did not exist.
func (c *Client) DeleteRecipe(ctx context.Context, id string) (bool, error) {
	existing, err := c.GetRecipe(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	_, err = query[any](ctx, c, `
		BEGIN TRANSACTION;
		DELETE ingredient WHERE recipe_id = $id;
		DELETE step_output_use WHERE recipe_id = $id;
		DELETE recipe_step WHERE recipe_id = $id;
		DELETE type::record("recipe", $id);
		COMMIT TRANSACTION;
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete recipe: %w", err)
	}
	return true, nil
}

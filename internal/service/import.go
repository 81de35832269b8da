package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/parser"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// ImportOptions configures recipe import.
type ImportOptions struct {
	DryRun bool // parse and validate only
}

// ImportResult summarizes an imported recipe.
type ImportResult struct {
	Recipe      models.Recipe       `json:"recipe"`
	Steps       []models.RecipeStep `json:"steps"`
	Ingredients int                 `json:"ingredients"`
}

// ImportFile imports a Markdown recipe file.
func (s *RecipeService) ImportFile(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return s.ImportContent(ctx, filePath, string(content), opts)
}

// ImportContent imports a Markdown recipe. Steps are created in file order
// through the creation service, so every dependency is validated against
// the steps created before it. "uses" numbers in the file are translated to
// the stored step numbers. If any step fails, the partially imported recipe
// is deleted again.
func (s *RecipeService) ImportContent(ctx context.Context, filePath, content string, opts ImportOptions) (*ImportResult, error) {
	doc, err := parser.ParseRecipe(content)
	if err != nil {
		return nil, &stepgraph.ValidationError{Field: "file", Message: err.Error()}
	}

	// Get name from title or filename
	if doc.Recipe.Title == "" && filePath != "" {
		doc.Recipe.Title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	if opts.DryRun {
		res := &ImportResult{Recipe: models.Recipe{ID: doc.Recipe.ID, Title: doc.Recipe.Title, Description: doc.Recipe.Description, Servings: doc.Recipe.Servings}}
		for i, st := range doc.Steps {
			res.Steps = append(res.Steps, models.RecipeStep{
				StepNum:     i + 1,
				StepTitle:   st.Title,
				Description: st.Description,
				Duration:    st.Duration,
			})
			res.Ingredients += len(nonBlankLines(st.Ingredients))
		}
		return res, nil
	}

	recipe, err := s.CreateRecipe(ctx, doc.Recipe)
	if err != nil {
		return nil, err
	}

	res, err := s.importSteps(ctx, recipe, doc.Steps)
	if err != nil {
		if delErr := s.DeleteRecipe(ctx, recipe.ID); delErr != nil {
			s.logger.Error("failed to roll back partial import", "recipe", recipe.ID, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("recipe imported", "recipe", recipe.ID, "steps", len(res.Steps), "ingredients", res.Ingredients, "file", filePath)
	return res, nil
}

func (s *RecipeService) importSteps(ctx context.Context, recipe *models.Recipe, steps []parser.StepDoc) (*ImportResult, error) {
	res := &ImportResult{Recipe: *recipe}
	stored := make(map[int]int, len(steps)) // file number -> step number

	for _, sd := range steps {
		uses := make([]int, len(sd.Uses))
		for i, u := range sd.Uses {
			uses[i] = stored[u]
		}

		st, err := s.CreateStep(ctx, recipe.ID, stepgraph.CreateStepRequest{
			Description: sd.Description,
			StepTitle:   sd.Title,
			Duration:    sd.Duration,
			UsesSteps:   uses,
		})
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", sd.Num, err)
		}
		stored[sd.Num] = st.StepNum
		res.Steps = append(res.Steps, *st)

		if strings.TrimSpace(sd.Ingredients) != "" {
			added, err := s.AddIngredients(ctx, recipe.ID, st.ID, sd.Ingredients)
			if err != nil {
				return nil, fmt.Errorf("step %d ingredients: %w", sd.Num, err)
			}
			res.Ingredients += len(added)
		}
	}
	return res, nil
}

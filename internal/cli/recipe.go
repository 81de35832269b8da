package cli

import (
	"fmt"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/spf13/cobra"
)

func newRecipeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Create, list, show and delete recipes",
	}
	cmd.AddCommand(newRecipeAddCmd(e))
	cmd.AddCommand(newRecipeListCmd(e))
	cmd.AddCommand(newRecipeShowCmd(e))
	cmd.AddCommand(newRecipeDeleteCmd(e))
	return cmd
}

func newRecipeAddCmd(e *env) *cobra.Command {
	var (
		id          string
		description string
		servings    int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a recipe",
		Long: `Create a recipe. The ID defaults to a random identity; --id sets a
readable one, which is slugified.

Examples:
  recipebox recipe add "Apple Pie" --id apple-pie --servings 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.RecipeInput{ID: id, Title: args[0], Description: description}
			if cmd.Flags().Changed("servings") {
				input.Servings = &servings
			}
			r, err := e.api.CreateRecipe(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("create recipe: %w", err)
			}
			printf(cmd, "Created recipe: %s (%s)\n", r.Title, r.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "recipe ID")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().IntVarP(&servings, "servings", "s", 0, "number of servings")
	return cmd
}

func newRecipeListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipes, err := e.api.ListRecipes(cmd.Context())
			if err != nil {
				return fmt.Errorf("list recipes: %w", err)
			}
			if len(recipes) == 0 {
				printf(cmd, "No recipes found.\n")
				return nil
			}
			printf(cmd, "Recipes (%d):\n", len(recipes))
			e.theme.renderRecipeTable(out(cmd), recipes, e.verbose)
			return nil
		},
	}
}

func newRecipeShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <recipe>",
		Short: "Show a recipe with its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := e.api.GetRecipe(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get recipe: %w", err)
			}
			steps, err := e.api.ListSteps(ctx, r.ID)
			if err != nil {
				return fmt.Errorf("list steps: %w", err)
			}
			e.theme.renderRecipe(out(cmd), r)
			printf(cmd, "\n")
			e.theme.renderSteps(out(cmd), steps, e.verbose)
			return nil
		},
	}
}

func newRecipeDeleteCmd(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <recipe>",
		Short: "Delete a recipe with all of its steps",
		Long: `Delete a recipe.

This will also delete its steps, their dependencies and ingredients.
Requires confirmation unless --force is used.

Examples:
  recipebox recipe delete apple-pie
  recipebox recipe delete apple-pie --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := e.api.GetRecipe(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get recipe: %w", err)
			}

			if !force {
				ok, err := e.confirm(cmd, fmt.Sprintf("About to delete: %s (%s)", r.Title, r.ID))
				if err != nil {
					return err
				}
				if !ok {
					printf(cmd, "Cancelled.\n")
					return nil
				}
			}

			if err := e.api.DeleteRecipe(ctx, r.ID); err != nil {
				return fmt.Errorf("delete recipe: %w", err)
			}
			printf(cmd, "Deleted: %s\n", r.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}

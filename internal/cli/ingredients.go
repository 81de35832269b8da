package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/spf13/cobra"
)

func newIngredientsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ingredients",
		Aliases: []string{"ing"},
		Short:   "Parse ingredient lists and attach them to steps",
	}
	cmd.AddCommand(newIngredientsParseCmd(e))
	cmd.AddCommand(newIngredientsAddCmd(e))
	cmd.AddCommand(newIngredientsListCmd(e))
	return cmd
}

// ingredientText joins args, or reads stdin when the only arg is "-".
func ingredientText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return strings.Join(args, "\n"), nil
}

func newIngredientsParseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <line>... | -",
		Short: "Parse ingredient lines without storing them",
		Long: `Parse ingredient lines into quantity, unit and name. Each argument is one
line; "-" reads lines from stdin.

Examples:
  recipebox ingredients parse "2 cups flour" "1 tsp salt"
  cat shopping.txt | recipebox ingredients parse -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := ingredientText(cmd, args)
			if err != nil {
				return err
			}
			parsed, err := e.api.ParseIngredients(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("parse ingredients: %w", err)
			}
			e.theme.renderIngredients(out(cmd), parsed)
			return nil
		},
	}
}

func newIngredientsAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <recipe> <step> <line>... | -",
		Short: "Parse ingredient lines and attach them to a step",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := e.resolveStep(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("find step: %w", err)
			}
			text, err := ingredientText(cmd, args[2:])
			if err != nil {
				return err
			}
			added, err := e.api.AddIngredients(ctx, args[0], st.ID, text)
			if err != nil {
				return fmt.Errorf("add ingredients: %w", err)
			}
			printf(cmd, "Added %d ingredient(s) to %s\n", len(added), st.Label())
			e.theme.renderIngredients(out(cmd), parsedOf(added))
			return nil
		},
	}
}

func newIngredientsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list <recipe> <step>",
		Short: "List the ingredients of a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := e.resolveStep(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("find step: %w", err)
			}
			items, err := e.api.ListIngredients(ctx, args[0], st.ID)
			if err != nil {
				return fmt.Errorf("list ingredients: %w", err)
			}
			if len(items) == 0 {
				printf(cmd, "No ingredients for %s.\n", st.Label())
				return nil
			}
			e.theme.renderIngredients(out(cmd), parsedOf(items))
			return nil
		},
	}
}

func parsedOf(items []models.Ingredient) []models.ParsedIngredient {
	out := make([]models.ParsedIngredient, len(items))
	for i, it := range items {
		out[i] = models.ParsedIngredient{Quantity: it.Quantity, Unit: it.Unit, Name: it.Name}
	}
	return out
}

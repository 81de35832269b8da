package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/spf13/cobra"
)

func newStepCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Add, list, delete, move and check recipe steps",
		Long: `Manage the numbered steps of a recipe.

Steps are referenced by number (as shown by "step list") or by ID.`,
	}
	cmd.AddCommand(newStepAddCmd(e))
	cmd.AddCommand(newStepListCmd(e))
	cmd.AddCommand(newStepDeleteCmd(e))
	cmd.AddCommand(newStepMoveCmd(e))
	cmd.AddCommand(newStepCheckCmd(e))
	return cmd
}

// resolveStep finds a step by number or ID.
func (e *env) resolveStep(ctx context.Context, recipeID, ref string) (*models.StepSummary, error) {
	num, err := strconv.Atoi(ref)
	if err != nil {
		return e.api.GetStep(ctx, recipeID, ref)
	}
	steps, err := e.api.ListSteps(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	for i := range steps {
		if steps[i].StepNum == num {
			return &steps[i], nil
		}
	}
	return nil, fmt.Errorf("step %d in recipe %s: %w", num, recipeID, stepgraph.ErrNotFound)
}

func newStepAddCmd(e *env) *cobra.Command {
	var (
		title    string
		duration int
		uses     []int
	)
	cmd := &cobra.Command{
		Use:   "add <recipe> <description>",
		Short: "Append a step to a recipe",
		Long: `Append a step to a recipe. The new step gets the next number.

--uses names earlier steps whose output this step consumes. Each must exist.

Examples:
  recipebox step add apple-pie "Make the crust" --duration 30
  recipebox step add apple-pie "Fill and bake" --uses 1,2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := stepgraph.CreateStepRequest{Description: args[1], UsesSteps: uses}
			if title != "" {
				req.StepTitle = &title
			}
			if cmd.Flags().Changed("duration") {
				req.Duration = &duration
			}
			st, err := e.api.CreateStep(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("add step: %w", err)
			}
			printf(cmd, "Added %s\n", st.Label())
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "step title")
	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "estimated minutes")
	cmd.Flags().IntSliceVarP(&uses, "uses", "u", nil, "step numbers this step uses")
	return cmd
}

func newStepListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list <recipe>",
		Short: "List a recipe's steps with their dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := e.api.ListSteps(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list steps: %w", err)
			}
			e.theme.renderSteps(out(cmd), steps, e.verbose)
			return nil
		},
	}
}

func newStepDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <recipe> <step>",
		Short: "Delete a step that no other step uses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := e.resolveStep(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("find step: %w", err)
			}

			err = e.api.DeleteStep(ctx, args[0], st.ID)
			var blocked *stepgraph.DeletionBlockedError
			if errors.As(err, &blocked) {
				printf(cmd, "%s\n", e.theme.errorStyle().Render(blocked.Error()))
				return reported(blocked)
			}
			if err != nil {
				return fmt.Errorf("delete step: %w", err)
			}
			printf(cmd, "Deleted %s\n", st.Label())
			return nil
		},
	}
}

func newStepMoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "move <recipe> <step> <up|down>",
		Short: "Swap a step with its neighbour",
		Long: `Swap a step with the step numbered one above or below it. Dependencies
move with their steps. Nothing happens when there is no such neighbour.

Moving a step above a step it uses is allowed; "step check" reports it.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := stepgraph.ParseDirection(args[2])
			if err != nil {
				return err
			}
			st, err := e.resolveStep(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("find step: %w", err)
			}
			moved, err := e.api.MoveStep(ctx, args[0], st.ID, dir)
			if err != nil {
				return fmt.Errorf("move step: %w", err)
			}
			if !moved {
				printf(cmd, "%s\n", e.theme.hintStyle().Render(fmt.Sprintf("Step %d has no neighbour %s; nothing moved.", st.StepNum, dir)))
				return nil
			}
			printf(cmd, "Moved Step %d %s\n", st.StepNum, dir)
			return nil
		},
	}
}

// errOutOfOrder makes "step check" exit non-zero.
var errOutOfOrder = errors.New("dependencies out of order")

func newStepCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check <recipe>",
		Short: "Report steps that come before a step they use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := e.api.Graph(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load graph: %w", err)
			}
			e.theme.renderViolations(out(cmd), view)
			if len(view.OrderingViolations) > 0 {
				return reported(errOutOfOrder)
			}
			return nil
		},
	}
}

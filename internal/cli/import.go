package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/recipebox/internal/service"
	"github.com/spf13/cobra"
)

func newImportCmd(e *env) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.md>",
		Short: "Import a Markdown recipe",
		Long: `Import a recipe from a Markdown file.

The file may start with YAML front matter (id, title, description,
servings). Steps are the numbered list under "## Steps"; a step declares the
steps it uses with "(uses 1, 2)" and a duration with "[20 min]". Ingredients
go under "## Ingredients" with one "### Step N" heading per step.

Every dependency must point at an earlier step. If any step fails, nothing
is kept.

Examples:
  recipebox import pizza.md
  recipebox import pizza.md --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			res, err := e.api.ImportContent(cmd.Context(), args[0], string(content), service.ImportOptions{DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			if dryRun {
				printf(cmd, "%s\n", e.theme.hintStyle().Render("Dry run: nothing stored."))
			}
			printf(cmd, "%s %s (%d steps, %d ingredients)\n",
				e.theme.successStyle().Render("✓ Imported"), res.Recipe.Title, len(res.Steps), res.Ingredients)
			if e.verbose {
				for _, st := range res.Steps {
					printf(cmd, "  %s\n", st.Label())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate only")
	return cmd
}

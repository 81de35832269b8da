package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/service"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Heading lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Warn    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Heading: lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Warn:    lipgloss.Color("#FFAF00"), // amber
}

func (t Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Heading).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warn)
}

// renderRecipe prints the recipe header.
func (t Theme) renderRecipe(w io.Writer, r *models.Recipe) {
	fmt.Fprintln(w, t.headingStyle().Render(r.Title))
	meta := []string{"id: " + r.ID}
	if r.Servings != nil {
		meta = append(meta, "serves "+strconv.Itoa(*r.Servings))
	}
	fmt.Fprintln(w, t.hintStyle().Render(strings.Join(meta, ", ")))
	if r.Description != "" {
		fmt.Fprintf(w, "\n%s\n", r.Description)
	}
}

// renderSteps prints one block per step with its edges.
func (t Theme) renderSteps(w io.Writer, steps []models.StepSummary, verbose bool) {
	if len(steps) == 0 {
		fmt.Fprintln(w, t.hintStyle().Render("No steps."))
		return
	}
	for _, st := range steps {
		header := st.Label()
		if st.Duration != nil {
			header += fmt.Sprintf(" (%d min)", *st.Duration)
		}
		fmt.Fprintln(w, t.headingStyle().Render(header))
		fmt.Fprintf(w, "  %s\n", st.Description)

		var edges []string
		if len(st.UsesSteps) > 0 {
			edges = append(edges, "uses "+joinInts(st.UsesSteps))
		}
		if len(st.UsedBy) > 0 {
			edges = append(edges, "used by "+joinInts(st.UsedBy))
		}
		if len(edges) > 0 {
			fmt.Fprintf(w, "  %s\n", t.hintStyle().Render(strings.Join(edges, "; ")))
		}
		if verbose {
			fmt.Fprintf(w, "  %s\n", t.hintStyle().Render("id: "+st.ID))
		}
	}
}

// renderViolations prints edges whose producer no longer precedes the consumer.
func (t Theme) renderViolations(w io.Writer, view *service.GraphView) {
	if len(view.OrderingViolations) == 0 {
		fmt.Fprintln(w, t.successStyle().Render("✓ Every step comes after the steps it uses"))
		return
	}
	fmt.Fprintln(w, t.warnStyle().Render(fmt.Sprintf("%d dependency(ies) out of order:", len(view.OrderingViolations))))
	for _, e := range view.OrderingViolations {
		fmt.Fprintf(w, "  Step %d uses Step %d, which now comes after it\n", e.InputStepNum, e.OutputStepNum)
	}
}

// renderRecipeTable lists recipes as a rounded table.
func (t Theme) renderRecipeTable(w io.Writer, recipes []models.Recipe, verbose bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := table.Row{text.FgHiCyan.Sprint("ID"), text.FgHiCyan.Sprint("TITLE"), text.FgHiCyan.Sprint("SERVES")}
	if verbose {
		header = append(header, text.FgHiCyan.Sprint("DESCRIPTION"))
	}
	tw.AppendHeader(header)

	for _, r := range recipes {
		serves := "-"
		if r.Servings != nil {
			serves = strconv.Itoa(*r.Servings)
		}
		row := table.Row{r.ID, r.Title, serves}
		if verbose {
			desc := r.Description
			if len(desc) > 60 {
				desc = desc[:57] + "..."
			}
			row = append(row, desc)
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func (t Theme) renderIngredients(w io.Writer, items []models.ParsedIngredient) {
	for _, it := range items {
		var parts []string
		if it.Quantity != nil {
			parts = append(parts, strconv.FormatFloat(*it.Quantity, 'f', -1, 64))
		}
		if it.Unit != "" {
			parts = append(parts, it.Unit)
		}
		parts = append(parts, it.Name)
		fmt.Fprintf(w, "- %s\n", strings.Join(parts, " "))
	}
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

package parser

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// RecipeDoc is a recipe read from Markdown, ready to be created step by step.
type RecipeDoc struct {
	Recipe models.RecipeInput
	Steps  []StepDoc
}

// StepDoc is one entry of the "Steps" list. Num is the number written in the
// file; Uses refers to those numbers, not to stored step numbers.
type StepDoc struct {
	Num         int
	Title       *string
	Description string
	Duration    *int
	Uses        []int
	Ingredients string // raw lines from "### Step N" under "Ingredients"
}

type frontMatter struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Servings    *int   `yaml:"servings"`
}

var (
	stepLineRegex  = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.+)$`)
	boldTitleRegex = regexp.MustCompile(`^\*\*([^*]+)\*\*:?\s*(.*)$`)
	usesRegex      = regexp.MustCompile(`(?i)\(\s*uses?\s+(?:steps?\s+)?([^)]*)\)`)
	durationRegex  = regexp.MustCompile(`(?i)\[\s*(\d+)\s*(?:min|mins|minutes?)\s*\]`)
	stepHeadRegex  = regexp.MustCompile(`(?i)^step\s+(\d+)$`)
)

// ParseRecipe parses a Markdown recipe. Every "uses" reference must name a
// step listed earlier in the file. The title comes from the front matter or
// the first h1 and is empty when neither exists.
func ParseRecipe(content string) (*RecipeDoc, error) {
	doc, err := ParseMarkdown(content)
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	if err := doc.DecodeFrontMatter(&fm); err != nil {
		return nil, err
	}

	out := &RecipeDoc{Recipe: models.RecipeInput{
		ID:          fm.ID,
		Title:       fm.Title,
		Description: strings.TrimSpace(fm.Description),
		Servings:    fm.Servings,
	}}
	if out.Recipe.Title == "" {
		out.Recipe.Title = doc.Title
	}

	steps := doc.Section("Steps")
	if steps == nil {
		return nil, fmt.Errorf("recipe has no Steps section")
	}
	out.Steps, err = parseSteps(steps.Content)
	if err != nil {
		return nil, err
	}

	if ings := doc.Section("Ingredients"); ings != nil {
		if err := attachIngredients(out.Steps, doc.Children(ings)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseSteps(content string) ([]StepDoc, error) {
	var steps []StepDoc
	seen := make(map[int]bool)
	prev := 0

	for i, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := stepLineRegex.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("steps line %d: expected a numbered item, got %q", i+1, strings.TrimSpace(line))
		}
		num, _ := strconv.Atoi(m[1])
		if num <= prev {
			return nil, fmt.Errorf("step %d: numbers must increase", num)
		}
		prev = num

		st, err := parseStepText(num, m[2])
		if err != nil {
			return nil, err
		}
		for _, u := range st.Uses {
			if !seen[u] {
				if u >= num {
					return nil, fmt.Errorf("step %d uses step %d, which does not come before it", num, u)
				}
				return nil, fmt.Errorf("step %d uses step %d, which is not listed", num, u)
			}
		}
		seen[num] = true
		steps = append(steps, st)
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps listed")
	}
	return steps, nil
}

func parseStepText(num int, text string) (StepDoc, error) {
	st := StepDoc{Num: num}

	if m := usesRegex.FindStringSubmatch(text); m != nil {
		uses, err := parseNumberList(m[1])
		if err != nil {
			return st, fmt.Errorf("step %d: %w", num, err)
		}
		st.Uses = uses
		text = strings.Replace(text, m[0], "", 1)
	}

	if m := durationRegex.FindStringSubmatch(text); m != nil {
		d, _ := strconv.Atoi(m[1])
		st.Duration = &d
		text = strings.Replace(text, m[0], "", 1)
	}

	text = strings.TrimSpace(text)
	if m := boldTitleRegex.FindStringSubmatch(text); m != nil {
		title := strings.TrimSpace(m[1])
		st.Title = &title
		text = strings.TrimSpace(m[2])
	}

	st.Description = strings.Join(strings.Fields(text), " ")
	if st.Description == "" {
		return st, fmt.Errorf("step %d: description is empty", num)
	}
	return st, nil
}

// parseNumberList reads "1, 2 and 3" style lists.
func parseNumberList(s string) ([]int, error) {
	s = strings.NewReplacer(" and ", ",", "&", ",").Replace(s)
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("uses: %q is not a step number", part)
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func attachIngredients(steps []StepDoc, sections []Section) error {
	for _, sec := range sections {
		m := stepHeadRegex.FindStringSubmatch(strings.TrimSpace(sec.Heading))
		if m == nil {
			return fmt.Errorf("ingredients: heading %q is not \"Step N\"", sec.Heading)
		}
		num, _ := strconv.Atoi(m[1])
		idx := slices.IndexFunc(steps, func(s StepDoc) bool { return s.Num == num })
		if idx < 0 {
			return fmt.Errorf("ingredients: step %d is not listed", num)
		}
		steps[idx].Ingredients = sec.Content
	}
	return nil
}

package models

import "time"

// RecipeStep is one numbered instruction unit within a recipe.
// StepNum is unique within RecipeID and gives execution order. Numbers are
// not compacted after deletions, so gaps are possible.
type RecipeStep struct {
	ID          string    `json:"id"`
	RecipeID    string    `json:"recipe_id"`
	StepNum     int       `json:"step_num"`
	StepTitle   *string   `json:"step_title,omitempty"`
	Description string    `json:"description"`
	Duration    *int      `json:"duration,omitempty"` // estimated minutes
	Created     time.Time `json:"created,omitempty"`
}

// Label returns "Step N" or "Step N: Title" for display.
func (s RecipeStep) Label() string {
	if s.StepTitle != nil && *s.StepTitle != "" {
		return "Step " + itoa(s.StepNum) + ": " + *s.StepTitle
	}
	return "Step " + itoa(s.StepNum)
}

// StepOutputUse is a dependency edge: the consumer step InputStepNum uses
// the output of the producer step OutputStepNum. Edges never cross recipes.
type StepOutputUse struct {
	RecipeID      string `json:"recipe_id"`
	OutputStepNum int    `json:"output_step_num"` // producer
	InputStepNum  int    `json:"input_step_num"`  // consumer
}

// Ordered reports whether the producer precedes the consumer.
// Always true at creation time; a reorder can break it.
func (e StepOutputUse) Ordered() bool {
	return e.OutputStepNum < e.InputStepNum
}

// StepSummary is a step together with its edges, for listing.
type StepSummary struct {
	RecipeStep
	UsesSteps []int `json:"uses_steps"`
	UsedBy    []int `json:"used_by"`
}

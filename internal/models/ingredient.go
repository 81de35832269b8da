package models

// ParsedIngredient is the structured form of one ingredient line.
type ParsedIngredient struct {
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Name     string   `json:"name"`
}

// Ingredient is a parsed ingredient attached to a step. It is scoped to
// (RecipeID, StepNum) and is removed together with its step.
type Ingredient struct {
	ID       string   `json:"id"`
	RecipeID string   `json:"recipe_id"`
	StepNum  int      `json:"step_num"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Name     string   `json:"name"`
	Raw      string   `json:"raw,omitempty"`
}

// Package models defines data structures for recipes, their numbered steps,
// the dependency edges between steps, and step-scoped ingredients.
package models

import "time"

// Recipe is the owner of an ordered list of steps.
type Recipe struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Servings    *int      `json:"servings,omitempty"`
	Created     time.Time `json:"created,omitempty"`
}

// RecipeInput is the input structure for creating recipes.
// ID is optional; a random identity is assigned when empty.
type RecipeInput struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Servings    *int   `json:"servings,omitempty"`
}

package stepgraph

import (
	"context"
	"fmt"
	"slices"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// Graph is an immutable view over one recipe's dependency edges.
type Graph struct {
	edges        []models.StepOutputUse
	dependents   map[int][]int // producer -> consumers
	dependencies map[int][]int // consumer -> producers
}

// NewGraph indexes edges in both directions. Neighbour lists are sorted
// ascending and deduplicated.
func NewGraph(edges []models.StepOutputUse) *Graph {
	g := &Graph{
		edges:        slices.Clone(edges),
		dependents:   make(map[int][]int),
		dependencies: make(map[int][]int),
	}
	for _, e := range edges {
		g.dependents[e.OutputStepNum] = append(g.dependents[e.OutputStepNum], e.InputStepNum)
		g.dependencies[e.InputStepNum] = append(g.dependencies[e.InputStepNum], e.OutputStepNum)
	}
	for k, v := range g.dependents {
		slices.Sort(v)
		g.dependents[k] = slices.Compact(v)
	}
	for k, v := range g.dependencies {
		slices.Sort(v)
		g.dependencies[k] = slices.Compact(v)
	}
	slices.SortFunc(g.edges, func(a, b models.StepOutputUse) int {
		if a.OutputStepNum != b.OutputStepNum {
			return a.OutputStepNum - b.OutputStepNum
		}
		return a.InputStepNum - b.InputStepNum
	})
	return g
}

// DependentsOf returns the steps that consume stepNum's output, ascending.
func (g *Graph) DependentsOf(stepNum int) []int {
	return slices.Clone(g.dependents[stepNum])
}

// DependenciesOf returns the steps whose output stepNum consumes, ascending.
func (g *Graph) DependenciesOf(stepNum int) []int {
	return slices.Clone(g.dependencies[stepNum])
}

// Edges returns all edges ordered by producer, then consumer.
func (g *Graph) Edges() []models.StepOutputUse {
	return slices.Clone(g.edges)
}

// OrderingViolations returns edges whose producer no longer precedes its
// consumer. Only a reorder can produce these; they are reported, not repaired.
func (g *Graph) OrderingViolations() []models.StepOutputUse {
	var out []models.StepOutputUse
	for _, e := range g.edges {
		if !e.Ordered() {
			out = append(out, e)
		}
	}
	return out
}

// DependencyGraph answers graph queries against the store's current state.
// Each call reloads the edges; nothing is cached between calls.
type DependencyGraph struct {
	store StepStore
}

// NewDependencyGraph creates a read-through graph reader.
func NewDependencyGraph(store StepStore) *DependencyGraph {
	return &DependencyGraph{store: store}
}

// Load builds a Graph from the recipe's current edges.
func (d *DependencyGraph) Load(ctx context.Context, recipeID string) (*Graph, error) {
	edges, err := d.store.ListEdges(ctx, recipeID)
	if err != nil {
		return nil, storeFailure(fmt.Sprintf("list edges of recipe %s", recipeID), err)
	}
	return NewGraph(edges), nil
}

// DependentsOf returns the steps of recipeID that consume stepNum, ascending.
func (d *DependencyGraph) DependentsOf(ctx context.Context, recipeID string, stepNum int) ([]int, error) {
	g, err := d.Load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return g.DependentsOf(stepNum), nil
}

// DependenciesOf returns the steps of recipeID that stepNum consumes, ascending.
func (d *DependencyGraph) DependenciesOf(ctx context.Context, recipeID string, stepNum int) ([]int, error) {
	g, err := d.Load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return g.DependenciesOf(stepNum), nil
}

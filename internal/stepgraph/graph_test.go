package stepgraph

import (
	"testing"

	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/stretchr/testify/assert"
)

func edge(out, in int) models.StepOutputUse {
	return models.StepOutputUse{RecipeID: "r", OutputStepNum: out, InputStepNum: in}
}

func TestGraphQueries(t *testing.T) {
	// Diamond: 2 and 3 use 1, 4 uses 2 and 3. Edges deliberately unsorted.
	g := NewGraph([]models.StepOutputUse{edge(3, 4), edge(1, 3), edge(2, 4), edge(1, 2)})

	assert.Equal(t, []int{2, 3}, g.DependentsOf(1))
	assert.Equal(t, []int{4}, g.DependentsOf(2))
	assert.Empty(t, g.DependentsOf(4))

	assert.Empty(t, g.DependenciesOf(1))
	assert.Equal(t, []int{1}, g.DependenciesOf(3))
	assert.Equal(t, []int{2, 3}, g.DependenciesOf(4))

	assert.Equal(t, []models.StepOutputUse{edge(1, 2), edge(1, 3), edge(2, 4), edge(3, 4)}, g.Edges())
	assert.Empty(t, g.OrderingViolations())
}

func TestGraphQueriesReturnCopies(t *testing.T) {
	g := NewGraph([]models.StepOutputUse{edge(1, 2), edge(1, 3)})

	deps := g.DependentsOf(1)
	deps[0] = 99

	assert.Equal(t, []int{2, 3}, g.DependentsOf(1))
}

func TestGraphDeduplicates(t *testing.T) {
	g := NewGraph([]models.StepOutputUse{edge(1, 2), edge(1, 2)})
	assert.Equal(t, []int{2}, g.DependentsOf(1))
	assert.Equal(t, []int{1}, g.DependenciesOf(2))
}

func TestGraphOrderingViolations(t *testing.T) {
	g := NewGraph([]models.StepOutputUse{edge(1, 2), edge(3, 2)})
	assert.Equal(t, []models.StepOutputUse{edge(3, 2)}, g.OrderingViolations())
}

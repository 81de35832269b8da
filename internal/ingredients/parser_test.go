package ingredients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		qty  *float64
		unit string
		name string
	}{
		{"2 eggs", ptr(2), "", "eggs"},
		{"500 g flour", ptr(500), "g", "flour"},
		{"1 1/2 cups milk", ptr(1.5), "cup", "milk"},
		{"1/2 tsp salt", ptr(0.5), "tsp", "salt"},
		{"½ cup sugar", ptr(0.5), "cup", "sugar"},
		{"1½ tablespoons olive oil", ptr(1.5), "tbsp", "olive oil"},
		{"- 3 cloves garlic", ptr(3), "clove", "garlic"},
		{"pinch of salt", nil, "pinch", "salt"},
		{"salt and pepper", nil, "", "salt and pepper"},
		{"2 cans of tomatoes", ptr(2), "can", "tomatoes"},
		{"0,5 l water", ptr(0.5), "l", "water"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			require.True(t, ok)
			if tt.qty == nil {
				assert.Nil(t, got.Quantity)
			} else {
				require.NotNil(t, got.Quantity)
				assert.InDelta(t, *tt.qty, *got.Quantity, 1e-9)
			}
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.name, got.Name)
		})
	}
}

func TestParseLineBlank(t *testing.T) {
	_, ok := ParseLine("   ")
	assert.False(t, ok)
	_, ok = ParseLine("- ")
	assert.False(t, ok)
}

func TestHeuristicParserSkipsBlankLines(t *testing.T) {
	got, err := HeuristicParser{}.Parse(context.Background(), "2 eggs\n\n* 100 ml milk\n")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "eggs", got[0].Name)
	assert.Equal(t, "ml", got[1].Unit)
}

func ptr(f float64) *float64 { return &f }

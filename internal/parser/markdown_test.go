package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkdownSections(t *testing.T) {
	content := `# Title

Intro.

## Steps

1. one

## Ingredients

### Step 1
- a

### Step 2
- b

## Notes
done
`
	doc, err := ParseMarkdown(content)
	require.NoError(t, err)
	assert.Equal(t, "Title", doc.Title)
	assert.Empty(t, doc.FrontMatter)

	ings := doc.Section("ingredients")
	require.NotNil(t, ings)
	assert.Equal(t, "# Title > ## Ingredients", ings.Path)

	children := doc.Children(ings)
	require.Len(t, children, 2)
	assert.Equal(t, "Step 1", children[0].Heading)
	assert.Equal(t, "# Title > ## Ingredients > ### Step 2", children[1].Path)
	assert.Equal(t, "- b", children[1].Content)

	assert.Nil(t, doc.Section("Equipment"))
}

func TestParseMarkdownFrontMatter(t *testing.T) {
	doc, err := ParseMarkdown("---\r\ntitle: Soup\r\n---\r\n# Heading\r\n")
	require.NoError(t, err)
	assert.Equal(t, "title: Soup", doc.FrontMatter)
	assert.Equal(t, "# Heading\n", doc.Content)

	var fm struct {
		Title string `yaml:"title"`
	}
	require.NoError(t, doc.DecodeFrontMatter(&fm))
	assert.Equal(t, "Soup", fm.Title)
}

// Package parser reads recipes written in Markdown: YAML front matter for the
// recipe, a "Steps" section with a numbered list, and an optional
// "Ingredients" section with one sub-heading per step.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkdownDoc represents a parsed Markdown document.
type MarkdownDoc struct {
	// Raw front matter YAML, without the --- fences
	FrontMatter string

	// Title extracted from front matter or first h1
	Title string

	// Main content (after front matter)
	Content string

	// Structured content by heading
	Sections []Section
}

// Section represents a heading and its content.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Path    string // Full path like "## Ingredients > ### Step 1"
	Content string // Content under this heading
	Start   int    // Line number where section starts
	End     int    // Line number where section ends
}

var (
	h1Regex      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
)

// ParseMarkdown parses a Markdown document into structured form.
func ParseMarkdown(content string) (*MarkdownDoc, error) {
	doc := &MarkdownDoc{}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	remaining := content
	if strings.HasPrefix(content, "---\n") {
		endIdx := strings.Index(content[4:], "\n---")
		if endIdx < 0 {
			return nil, fmt.Errorf("front matter: missing closing ---")
		}
		doc.FrontMatter = content[4 : 4+endIdx]
		remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")
	}

	doc.Content = remaining
	doc.Sections = parseSections(remaining)
	if match := h1Regex.FindStringSubmatch(remaining); len(match) > 1 {
		doc.Title = strings.TrimSpace(match[1])
	}

	return doc, nil
}

// DecodeFrontMatter unmarshals the front matter into v. A document without
// front matter leaves v untouched.
func (d *MarkdownDoc) DecodeFrontMatter(v any) error {
	if strings.TrimSpace(d.FrontMatter) == "" {
		return nil
	}
	if err := yaml.Unmarshal([]byte(d.FrontMatter), v); err != nil {
		return fmt.Errorf("front matter: %w", err)
	}
	return nil
}

// Section returns the first section whose heading matches name
// case-insensitively, or nil.
func (d *MarkdownDoc) Section(name string) *Section {
	for i := range d.Sections {
		if strings.EqualFold(d.Sections[i].Heading, name) {
			return &d.Sections[i]
		}
	}
	return nil
}

// Children returns the sections nested directly under parent.
func (d *MarkdownDoc) Children(parent *Section) []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Start <= parent.Start {
			continue
		}
		if s.Level <= parent.Level {
			break
		}
		if s.Level == parent.Level+1 {
			out = append(out, s)
		}
	}
	return out
}

// parseSections extracts sections from Markdown content.
func parseSections(content string) []Section {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0
	var currentPath []string
	var currentLevels []int

	var currentSection *Section
	var contentBuilder strings.Builder

	flushSection := func(endLine int) {
		if currentSection != nil {
			currentSection.Content = strings.TrimSpace(contentBuilder.String())
			currentSection.End = endLine
			sections = append(sections, *currentSection)
			contentBuilder.Reset()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if match := headingRegex.FindStringSubmatch(line); len(match) > 0 {
			// Flush previous section
			flushSection(lineNum - 1)

			level := len(match[1])
			heading := strings.TrimSpace(match[2])

			// Update path based on heading level
			for len(currentLevels) > 0 && currentLevels[len(currentLevels)-1] >= level {
				currentPath = currentPath[:len(currentPath)-1]
				currentLevels = currentLevels[:len(currentLevels)-1]
			}
			currentPath = append(currentPath, match[1]+" "+heading)
			currentLevels = append(currentLevels, level)

			currentSection = &Section{
				Level:   level,
				Heading: heading,
				Path:    strings.Join(currentPath, " > "),
				Start:   lineNum,
			}
		} else if currentSection != nil {
			contentBuilder.WriteString(line)
			contentBuilder.WriteString("\n")
		}
	}

	// Flush last section
	flushSection(lineNum)

	return sections
}

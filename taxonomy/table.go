// Package taxonomy describes what a crawl asks and how categories nest.
//
// A Table maps each category name to its question template, the child
// categories an answer may list, and whether concepts in the category become
// graph classes. The crawler consults the table instead of inspecting answer
// shapes at runtime.
package taxonomy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/ontocrawl/ontology"
)

// Placeholders substituted by Category.Render.
const (
	NamePlaceholder         = "<name>"
	InstructionsPlaceholder = "<commonUserMessages>"
)

// Reserved answer fields. A category may not use these names.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldAliases     = "aliases"
)

// Category configures one level of the taxonomy.
type Category struct {
	Name     string   `yaml:"name"`
	Question string   `yaml:"question"`
	Children []string `yaml:"children,omitempty"`
	// Graph is false for structural categories such as the crawl root,
	// whose answers are expanded but never become classes.
	Graph bool `yaml:"graph"`
}

// Render builds the question for one concept.
func (c Category) Render(concept string, instructions []string) string {
	return strings.NewReplacer(
		NamePlaceholder, concept,
		InstructionsPlaceholder, strings.Join(instructions, " "),
	).Replace(c.Question)
}

// Table is the full crawl configuration.
type Table struct {
	SystemPrompt string `yaml:"system_prompt"`
	// CommonInstructions replace <commonUserMessages> in every question.
	CommonInstructions []string `yaml:"common_instructions,omitempty"`
	// Root is the category the crawl starts from.
	Root string `yaml:"root"`
	// RootConcept is the single concept asked about in Root.
	RootConcept string     `yaml:"root_concept"`
	Categories  []Category `yaml:"categories"`
}

// Category returns the named category.
func (t *Table) Category(name string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Question renders the question for concept in category.
func (t *Table) Question(category, concept string) (string, error) {
	c, ok := t.Category(category)
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return c.Render(concept, t.CommonInstructions), nil
}

// Validate checks references and rejects cycles so crawl depth is bounded
// by the number of categories.
func (t *Table) Validate() error {
	var errs []error
	if strings.TrimSpace(t.SystemPrompt) == "" {
		errs = append(errs, errors.New("system_prompt is required"))
	}
	if t.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if t.RootConcept == "" {
		errs = append(errs, errors.New("root_concept is required"))
	}

	seen := make(map[string]bool, len(t.Categories))
	for i, c := range t.Categories {
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
			continue
		case c.Name == FieldName || c.Name == FieldDescription || c.Name == FieldAliases:
			errs = append(errs, fmt.Errorf("category %q: name is reserved", c.Name))
		case seen[c.Name]:
			errs = append(errs, fmt.Errorf("category %q: duplicate", c.Name))
		}
		seen[c.Name] = true

		if err := ontology.ValidateName(c.Name); err != nil {
			errs = append(errs, fmt.Errorf("category %q: %w", c.Name, err))
		}
		if strings.TrimSpace(c.Question) == "" {
			errs = append(errs, fmt.Errorf("category %q: question is required", c.Name))
		}
	}

	for _, c := range t.Categories {
		for _, child := range c.Children {
			if !seen[child] {
				errs = append(errs, fmt.Errorf("category %q: unknown child %q", c.Name, child))
			}
		}
	}
	if t.Root != "" && !seen[t.Root] {
		errs = append(errs, fmt.Errorf("root %q is not a category", t.Root))
	}

	if len(errs) == 0 {
		if cycle := t.findCycle(); cycle != nil {
			errs = append(errs, fmt.Errorf("category cycle: %s", strings.Join(cycle, " -> ")))
		}
	}
	return errors.Join(errs...)
}

// findCycle returns the first cycle found in the child graph, or nil.
func (t *Table) findCycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(t.Categories))
	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case active:
			for i, p := range path {
				if p == name {
					return append(append([]string(nil), path[i:]...), name)
				}
			}
		case done:
			return nil
		}
		state[name] = active
		path = append(path, name)
		c, _ := t.Category(name)
		for _, child := range c.Children {
			if cycle := visit(child); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, c := range t.Categories {
		if cycle := visit(c.Name); cycle != nil {
			return cycle
		}
	}
	return nil
}

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if t.RootConcept == "" {
		t.RootConcept = DefaultRootConcept
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}
	return &t, nil
}

// Load reads a YAML table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Marshal renders the table as YAML.
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

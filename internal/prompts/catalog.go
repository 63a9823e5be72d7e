// Package prompts implements the prompt catalog: named text templates for
// each stage of the spec-driven workflow (requirements, design, code).
//
// Each prompt lives in its own file and contributes an Entry to the
// catalog. Transports render prompts by name with a flat argument bag and
// receive role-tagged messages back; the catalog never learns anything
// about sessions or wire formats.
package prompts

import (
	"errors"
	"fmt"
	"maps"
)

var (
	// ErrUnknownPrompt is returned when no entry matches the name.
	ErrUnknownPrompt = errors.New("unknown prompt")

	// ErrMissingArgument is returned when a required argument is absent.
	ErrMissingArgument = errors.New("missing required argument")
)

// ArgSpec describes one prompt argument.
type ArgSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
}

// Message is one role-tagged chunk of rendered prompt text.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Entry is a single named prompt.
type Entry struct {
	Name        string
	Title       string
	Description string
	Arguments   []ArgSpec
	render      func(args map[string]string) (string, error)
}

// Catalog is a read-only mapping from prompt name to Entry.
type Catalog struct {
	entries map[string]Entry
	order   []string
}

// NewCatalog builds the catalog with the three spec-driven prompts.
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]Entry)}
	c.add(requirementsPrompt())
	c.add(designPrompt())
	c.add(codePrompt())
	return c
}

func (c *Catalog) add(e Entry) {
	c.entries[e.Name] = e
	c.order = append(c.order, e.Name)
}

// List returns all entries in registration order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name])
	}
	return out
}

// Get returns the entry for name, or false.
func (c *Catalog) Get(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Render resolves argument defaults, enforces required arguments, and
// renders the named prompt into role-tagged messages.
func (c *Catalog) Render(name string, args map[string]string) ([]Message, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}

	resolved := maps.Clone(args)
	if resolved == nil {
		resolved = make(map[string]string)
	}
	for _, a := range e.Arguments {
		if resolved[a.Name] != "" {
			continue
		}
		if a.Required {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, a.Name)
		}
		if a.Default != "" {
			resolved[a.Name] = a.Default
		}
	}

	content, err := e.render(resolved)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return []Message{{Role: "user", Content: content}}, nil
}

// Package scenarios contains the scenarios shipped with uiprof. Each one
// drives a loaded document and ends with a layout pass, so style sheet
// changes show up in its timings.
package scenarios

import (
	"fmt"
	"sort"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/scenario"
)

// Factory builds a scenario against a document from option values.
type Factory struct {
	ID          string
	Name        string
	Description string
	Schema      scenario.Schema
	build       func(doc *document.Document, values map[string]any) (*scenario.Scenario, error)
}

// New builds the scenario. Missing options take their schema default.
func (f Factory) New(doc *document.Document, values map[string]any) (*scenario.Scenario, error) {
	if doc == nil {
		return nil, fmt.Errorf("scenario %s needs a document", f.ID)
	}
	sc, err := f.build(doc, values)
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario %s: %w", f.ID, err)
	}
	sc.ID = f.ID
	sc.Name = f.Name
	sc.Schema = f.Schema
	return sc, nil
}

var registry = map[string]Factory{}

func register(f Factory) {
	registry[f.ID] = f
}

// All lists the built-in scenarios sorted by id.
func All() []Factory {
	all := make([]Factory, 0, len(registry))
	for _, f := range registry {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Lookup returns the scenario with the given id.
func Lookup(id string) (Factory, error) {
	f, ok := registry[id]
	if !ok {
		return Factory{}, fmt.Errorf("unknown scenario %q", id)
	}
	return f, nil
}

func property(typ string, def any, description string) map[string]any {
	return map[string]any{
		"type":        typ,
		"default":     def,
		"description": description,
	}
}

func schema(props map[string]any) scenario.Schema {
	return scenario.Schema{
		"type":       "object",
		"properties": props,
	}
}

package scenarios

import (
	"context"
	"fmt"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/scenario"
)

func init() {
	register(Factory{
		ID:          "restyle",
		Name:        "Restyle",
		Description: "Recompute the styles of the whole document",
		Schema: schema(map[string]any{
			"passes": property("integer", 1, "Layout passes per run"),
		}),
		build: newRestyle,
	})
	register(Factory{
		ID:          "toggle-class",
		Name:        "Toggle class",
		Description: "Toggle a class on every matching element, then lay out",
		Schema: schema(map[string]any{
			"selector": property("string", "body *", "Elements to toggle the class on"),
			"class":    property("string", "active", "Class to toggle"),
		}),
		build: newToggleClass,
	})
	register(Factory{
		ID:          "insert-nodes",
		Name:        "Insert nodes",
		Description: "Append classed elements to a container, then lay out",
		Schema: schema(map[string]any{
			"container": property("string", "body", "Element receiving the new children"),
			"tag":       property("string", "div", "Tag of the inserted elements"),
			"class":     property("string", "item", "Class of the inserted elements"),
			"count":     property("integer", 10, "Elements inserted per run"),
		}),
		build: newInsertNodes,
	})
}

type restyleOptions struct {
	Passes int `json:"passes"`
}

func newRestyle(doc *document.Document, values map[string]any) (*scenario.Scenario, error) {
	var opts restyleOptions
	if err := registry["restyle"].Schema.Decode(values, &opts); err != nil {
		return nil, err
	}
	if opts.Passes < 1 {
		return nil, fmt.Errorf("passes must be at least 1, got %d", opts.Passes)
	}

	return &scenario.Scenario{
		Run: func(ctx context.Context) error {
			for i := 0; i < opts.Passes; i++ {
				if err := doc.Layout(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

type toggleClassOptions struct {
	Selector string `json:"selector"`
	Class    string `json:"class"`
}

func newToggleClass(doc *document.Document, values map[string]any) (*scenario.Scenario, error) {
	var opts toggleClassOptions
	if err := registry["toggle-class"].Schema.Decode(values, &opts); err != nil {
		return nil, err
	}
	if opts.Class == "" {
		return nil, fmt.Errorf("class must not be empty")
	}

	var targets []*document.Element
	return &scenario.Scenario{
		SetupSuite: func(ctx context.Context) error {
			els, err := doc.QuerySelectorAll(opts.Selector)
			if err != nil {
				return err
			}
			if len(els) == 0 {
				return fmt.Errorf("selector %q matched nothing", opts.Selector)
			}
			targets = els
			return nil
		},
		Run: func(ctx context.Context) error {
			for _, el := range targets {
				el.ToggleClass(opts.Class)
			}
			return doc.Layout(ctx)
		},
		Cleanup: func(ctx context.Context) error {
			for _, el := range targets {
				el.ToggleClass(opts.Class)
			}
			return nil
		},
		CleanupSuite: func(ctx context.Context) error {
			targets = nil
			return nil
		},
	}, nil
}

type insertNodesOptions struct {
	Container string `json:"container"`
	Tag       string `json:"tag"`
	Class     string `json:"class"`
	Count     int    `json:"count"`
}

func newInsertNodes(doc *document.Document, values map[string]any) (*scenario.Scenario, error) {
	var opts insertNodesOptions
	if err := registry["insert-nodes"].Schema.Decode(values, &opts); err != nil {
		return nil, err
	}
	if opts.Count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", opts.Count)
	}

	var (
		container *document.Element
		inserted  []*document.Element
	)
	return &scenario.Scenario{
		SetupSuite: func(ctx context.Context) error {
			els, err := doc.QuerySelectorAll(opts.Container)
			if err != nil {
				return err
			}
			if len(els) == 0 {
				return fmt.Errorf("container %q matched nothing", opts.Container)
			}
			container = els[0]
			return nil
		},
		Run: func(ctx context.Context) error {
			for i := 0; i < opts.Count; i++ {
				var classes []string
				if opts.Class != "" {
					classes = append(classes, opts.Class)
				}
				inserted = append(inserted, container.AppendElement(opts.Tag, classes...))
			}
			return doc.Layout(ctx)
		},
		Cleanup: func(ctx context.Context) error {
			for _, el := range inserted {
				el.Remove()
			}
			inserted = inserted[:0]
			return nil
		},
	}, nil
}

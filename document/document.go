// Package document models the page a scenario runs against: an HTML
// element tree, its <style> elements with parsed style sheets, a
// MutationObserver-like notification hook and a style resolution pass
// standing in for the browser's layout.
//
// A Document is not safe for concurrent use. Benchmarks mutate it and
// restore it strictly sequentially.
package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a loaded page.
type Document struct {
	root      *html.Node
	dir       string
	styles    []*StyleElement
	observers map[int]func(MutationRecord)
	nextObs   int
	computed  map[*html.Node]map[string]string
}

// Option configures a Document.
type Option func(*Document)

// WithBaseDir sets the directory relative resources (source maps) are
// resolved against.
func WithBaseDir(dir string) Option {
	return func(d *Document) {
		d.dir = dir
	}
}

// Load parses an HTML page and the style sheets of its <style> elements.
func Load(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	d := &Document{
		root:      root,
		observers: make(map[int]func(MutationRecord)),
	}
	for _, opt := range opts {
		opt(d)
	}

	var walkErr error
	walk(root, false, func(n *html.Node, inTemplate bool) {
		if walkErr != nil || n.Type != html.ElementNode || n.DataAtom != atom.Style {
			return
		}
		el, err := newStyleElement(n, inTemplate)
		if err != nil {
			walkErr = fmt.Errorf("style element %d: %w", len(d.styles)+1, err)
			return
		}
		d.styles = append(d.styles, el)
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return d, nil
}

// Parse loads a page from a string.
func Parse(s string, opts ...Option) (*Document, error) {
	return Load(strings.NewReader(s), opts...)
}

// LoadFile loads a page from disk, resolving relative resources against
// the file's directory.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return Load(f, WithBaseDir(filepath.Dir(path)))
}

// Dir returns the base directory for relative resources.
func (d *Document) Dir() string {
	return d.dir
}

// StyleElements returns the <style> elements in document order.
func (d *Document) StyleElements() []*StyleElement {
	return append([]*StyleElement(nil), d.styles...)
}

// Root returns the document element (<html>).
func (d *Document) Root() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.element(c)
		}
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	els, _ := d.QuerySelectorAll("body")
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// QuerySelectorAll returns the elements matching a CSS selector group in
// document order.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	nodes := cascadia.QueryAll(d.root, group)
	els := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, d.element(n))
	}
	return els, nil
}

// Matches returns the number of elements a selector matches.
func (d *Document) Matches(selector string) (int, error) {
	els, err := d.QuerySelectorAll(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// TagCounts counts live elements by tag name.
func (d *Document) TagCounts() map[string]int {
	counts := make(map[string]int)
	walk(d.root, false, func(n *html.Node, _ bool) {
		if n.Type == html.ElementNode {
			counts[strings.ToLower(n.Data)]++
		}
	})
	return counts
}

// walk visits n and its descendants in document order. inTemplate reports
// whether a node sits inside a <template> element.
func walk(n *html.Node, inTemplate bool, fn func(n *html.Node, inTemplate bool)) {
	fn(n, inTemplate)
	if n.Type == html.ElementNode && n.DataAtom == atom.Template {
		inTemplate = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, inTemplate, fn)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, false, func(c *html.Node, _ bool) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

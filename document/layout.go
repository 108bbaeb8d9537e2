package document

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Layout resolves the computed style of every element against the
// enabled sheets. Declarations apply in document order, !important ones
// after normal ones. Rules nested in @media and @supports apply
// unconditionally.
func (d *Document) Layout(ctx context.Context) error {
	var rules []*StyleRule
	for _, el := range d.styles {
		if el.sheet == nil || el.sheet.disabled {
			continue
		}
		rules = appendStyleRules(rules, el.sheet.rules)
	}

	computed := make(map[*html.Node]map[string]string)
	var err error
	walk(d.root, false, func(n *html.Node, inTemplate bool) {
		if err != nil || inTemplate || n.Type != html.ElementNode {
			return
		}
		if err = ctx.Err(); err != nil {
			return
		}
		computed[n] = resolve(n, rules)
	})
	if err != nil {
		return fmt.Errorf("layout interrupted: %w", err)
	}
	d.computed = computed
	return nil
}

// ComputedStyle returns the style resolved by the last Layout, or nil if
// the tree changed since.
func (d *Document) ComputedStyle(e *Element) map[string]string {
	if d.computed == nil {
		return nil
	}
	return d.computed[e.node]
}

func appendStyleRules(dst []*StyleRule, rules []Rule) []*StyleRule {
	for _, r := range rules {
		switch r := r.(type) {
		case *StyleRule:
			dst = append(dst, r)
		case *AtRule:
			switch strings.ToLower(r.Name) {
			case "@media", "@supports", "@document":
				dst = appendStyleRules(dst, r.Rules)
			}
		}
	}
	return dst
}

func resolve(n *html.Node, rules []*StyleRule) map[string]string {
	style := make(map[string]string)
	important := make(map[string]bool)
	for _, r := range rules {
		if !r.Matches(n) {
			continue
		}
		for _, decl := range r.Declarations {
			if important[decl.Property] && !decl.Important {
				continue
			}
			style[decl.Property] = decl.Value
			if decl.Important {
				important[decl.Property] = true
			}
		}
	}
	return style
}

package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// ErrIndexOutOfRange is returned when a rule index falls outside a sheet.
var ErrIndexOutOfRange = errors.New("rule index out of range")

// Restore undoes a single mutation.
type Restore func() error

// Rule is an entry of a style sheet's rule list.
type Rule interface {
	// CSSText returns the serialised rule.
	CSSText() string
}

// StyleRule is a rule with a selector and a declaration block.
type StyleRule struct {
	Selector     string
	Declarations []*css.Declaration

	raw     *css.Rule
	matcher cascadia.Matcher
}

// CSSText implements Rule.
func (r *StyleRule) CSSText() string {
	return r.raw.String()
}

// Matches reports whether the rule's selector matches an element. Rules
// whose selector cannot be compiled never match.
func (r *StyleRule) Matches(n *html.Node) bool {
	if r.matcher == nil {
		return false
	}
	return r.matcher.Match(n)
}

// AtRule is an at-rule such as @media or @font-face.
type AtRule struct {
	Name    string
	Prelude string
	Rules   []Rule

	raw *css.Rule
}

// CSSText implements Rule.
func (r *AtRule) CSSText() string {
	return r.raw.String()
}

// ParseRule parses the text of a single rule.
func ParseRule(text string) (Rule, error) {
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule: %w", err)
	}
	if len(sheet.Rules) != 1 {
		return nil, fmt.Errorf("expected one rule, got %d", len(sheet.Rules))
	}
	return newRule(sheet.Rules[0]), nil
}

func newRule(raw *css.Rule) Rule {
	if raw.Kind == css.AtRule {
		r := &AtRule{Name: raw.Name, Prelude: raw.Prelude, raw: raw}
		for _, child := range raw.Rules {
			r.Rules = append(r.Rules, newRule(child))
		}
		return r
	}

	r := &StyleRule{
		Selector:     strings.Join(raw.Selectors, ", "),
		Declarations: raw.Declarations,
		raw:          raw,
	}
	if group, err := cascadia.ParseGroup(r.Selector); err == nil {
		r.matcher = group
	}
	return r
}

// StyleElement is a <style> element and its attached sheet.
type StyleElement struct {
	node  *html.Node
	text  string
	sheet *StyleSheet
}

func newStyleElement(n *html.Node, inTemplate bool) (*StyleElement, error) {
	el := &StyleElement{node: n, text: textContent(n)}
	if inTemplate || !isCSS(n) {
		return el, nil
	}

	parsed, err := parser.Parse(el.text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse style sheet: %w", err)
	}
	sheet := &StyleSheet{}
	for _, raw := range parsed.Rules {
		sheet.rules = append(sheet.rules, newRule(raw))
	}
	el.sheet = sheet
	return el, nil
}

func isCSS(n *html.Node) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "type") {
			t := strings.TrimSpace(a.Val)
			return t == "" || strings.EqualFold(t, "text/css")
		}
	}
	return true
}

// TextContent returns the element's source text as loaded.
func (e *StyleElement) TextContent() string {
	return e.text
}

// Sheet returns the attached sheet, or nil when the element has none
// (non-CSS type or inert template content).
func (e *StyleElement) Sheet() *StyleSheet {
	return e.sheet
}

// StyleSheet is a mutable, ordered list of rules.
type StyleSheet struct {
	rules    []Rule
	disabled bool
}

// Len returns the number of rules.
func (s *StyleSheet) Len() int {
	return len(s.rules)
}

// Rules returns a snapshot of the rule list.
func (s *StyleSheet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Rule returns the rule at index i.
func (s *StyleSheet) Rule(i int) (Rule, error) {
	if i < 0 || i >= len(s.rules) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.rules))
	}
	return s.rules[i], nil
}

// DeleteRule removes the rule at index i.
func (s *StyleSheet) DeleteRule(i int) error {
	if i < 0 || i >= len(s.rules) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.rules))
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}

// InsertRule inserts a rule so that it ends up at index i.
func (s *StyleSheet) InsertRule(r Rule, i int) error {
	if i < 0 || i > len(s.rules) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.rules))
	}
	s.rules = append(s.rules, nil)
	copy(s.rules[i+1:], s.rules[i:])
	s.rules[i] = r
	return nil
}

// RemoveRule deletes the rule at index i and returns a Restore that puts
// the same rule back at the same index.
func (s *StyleSheet) RemoveRule(i int) (Restore, error) {
	r, err := s.Rule(i)
	if err != nil {
		return nil, err
	}
	if err := s.DeleteRule(i); err != nil {
		return nil, err
	}
	return func() error {
		if err := s.InsertRule(r, i); err != nil {
			return fmt.Errorf("failed to restore rule %d: %w", i, err)
		}
		return nil
	}, nil
}

// Disabled reports whether the sheet is excluded from style resolution.
func (s *StyleSheet) Disabled() bool {
	return s.disabled
}

// SetDisabled toggles the sheet.
func (s *StyleSheet) SetDisabled(disabled bool) {
	s.disabled = disabled
}

// Disable disables the sheet and returns a Restore that reinstates the
// previous state.
func (s *StyleSheet) Disable() Restore {
	prev := s.disabled
	s.disabled = true
	return func() error {
		s.disabled = prev
		return nil
	}
}

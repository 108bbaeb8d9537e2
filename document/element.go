package document

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// MutationType classifies a MutationRecord.
type MutationType string

const (
	MutationAttributes MutationType = "attributes"
	MutationChildList  MutationType = "childList"
)

// MutationRecord describes one change to the element tree.
type MutationRecord struct {
	Type          MutationType
	Target        *Element
	AttributeName string
	OldValue      string
	Added         []*Element
	Removed       []*Element
}

// Element is a handle on an element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

func (d *Document) element(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attribute("id")
	return v
}

// Attribute returns an attribute value.
func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute sets an attribute, notifying observers.
func (e *Element) SetAttribute(name, value string) {
	old, _ := e.Attribute(name)
	idx := slices.IndexFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
	if idx >= 0 {
		e.node.Attr[idx].Val = value
	} else {
		e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	}
	e.doc.notify(MutationRecord{Type: MutationAttributes, Target: e, AttributeName: name, OldValue: old})
}

// RemoveAttribute removes an attribute, notifying observers if it was set.
func (e *Element) RemoveAttribute(name string) {
	old, ok := e.Attribute(name)
	if !ok {
		return
	}
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
	e.doc.notify(MutationRecord{Type: MutationAttributes, Target: e, AttributeName: name, OldValue: old})
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := e.Attribute("class")
	return strings.Fields(v)
}

// HasClass reports whether the element carries a class.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes(), class)
}

// AddClass adds a class if missing.
func (e *Element) AddClass(class string) {
	classes := e.Classes()
	if slices.Contains(classes, class) {
		return
	}
	e.SetAttribute("class", strings.Join(append(classes, class), " "))
}

// RemoveClass removes a class if present.
func (e *Element) RemoveClass(class string) {
	classes := e.Classes()
	if !slices.Contains(classes, class) {
		return
	}
	e.SetAttribute("class", strings.Join(slices.DeleteFunc(classes, func(c string) bool { return c == class }), " "))
}

// ToggleClass flips a class and reports whether it is now present.
func (e *Element) ToggleClass(class string) bool {
	if e.HasClass(class) {
		e.RemoveClass(class)
		return false
	}
	e.AddClass(class)
	return true
}

// AppendElement creates a child element with the given classes and
// appends it.
func (e *Element) AppendElement(tag string, classes ...string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: strings.ToLower(tag)}
	if len(classes) > 0 {
		n.Attr = []html.Attribute{{Key: "class", Val: strings.Join(classes, " ")}}
	}
	e.node.AppendChild(n)
	child := e.doc.element(n)
	e.doc.notify(MutationRecord{Type: MutationChildList, Target: e, Added: []*Element{child}})
	return child
}

// Children returns the element children.
func (e *Element) Children() []*Element {
	var children []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, e.doc.element(c))
		}
	}
	return children
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	parent := e.node.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(e.node)
	e.doc.notify(MutationRecord{Type: MutationChildList, Target: e.doc.element(parent), Removed: []*Element{e}})
}

// Observe registers fn for every subsequent mutation of the tree and
// returns a function that disconnects it.
func (d *Document) Observe(fn func(MutationRecord)) (disconnect func()) {
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	return func() {
		delete(d.observers, id)
	}
}

func (d *Document) notify(rec MutationRecord) {
	d.computed = nil
	for _, id := range d.observerIDs() {
		if fn, ok := d.observers[id]; ok {
			fn(rec)
		}
	}
}

func (d *Document) observerIDs() []int {
	ids := make([]int, 0, len(d.observers))
	for id := range d.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

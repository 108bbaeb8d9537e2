package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html>
<head>
<style>
.card { color: red; }
#main .card { color: blue !important; }
@media (min-width: 100px) { .card { padding: 4px; } }
</style>
<style type="text/plain">not css</style>
<template><style>.inert { color: green; }</style></template>
<style>.badge, .card { margin: 0; } .card { color: black; }</style>
</head>
<body>
<div id="main"><p class="card">a</p><p class="card other">b</p></div>
</body>
</html>`

func loadPage(t *testing.T) *Document {
	t.Helper()
	d, err := Parse(page)
	require.NoError(t, err)
	return d
}

func TestLoadStyleElements(t *testing.T) {
	d := loadPage(t)
	styles := d.StyleElements()
	require.Len(t, styles, 4)

	require.NotNil(t, styles[0].Sheet())
	assert.Equal(t, 3, styles[0].Sheet().Len())
	assert.Nil(t, styles[1].Sheet(), "non-CSS type")
	assert.Nil(t, styles[2].Sheet(), "template content is inert")
	require.NotNil(t, styles[3].Sheet())
	assert.Equal(t, 2, styles[3].Sheet().Len())

	assert.Contains(t, styles[1].TextContent(), "not css")

	rules := styles[0].Sheet().Rules()
	sr, ok := rules[0].(*StyleRule)
	require.True(t, ok)
	assert.Equal(t, ".card", sr.Selector)
	at, ok := rules[2].(*AtRule)
	require.True(t, ok)
	assert.Equal(t, "@media", at.Name)
	require.Len(t, at.Rules, 1)

	group, ok := styles[3].Sheet().Rules()[0].(*StyleRule)
	require.True(t, ok)
	assert.Equal(t, ".badge, .card", group.Selector)
}

func TestRemoveRuleRestore(t *testing.T) {
	d := loadPage(t)
	sheet := d.StyleElements()[0].Sheet()
	before := sheet.Rules()

	restore, err := sheet.RemoveRule(1)
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.Len())

	require.NoError(t, restore())
	assert.Equal(t, before, sheet.Rules())
}

func TestRuleIndexBounds(t *testing.T) {
	d := loadPage(t)
	sheet := d.StyleElements()[0].Sheet()

	_, err := sheet.RemoveRule(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, sheet.DeleteRule(-1), ErrIndexOutOfRange)

	r, err := ParseRule(".x { color: red; }")
	require.NoError(t, err)
	assert.ErrorIs(t, sheet.InsertRule(r, 5), ErrIndexOutOfRange)
	require.NoError(t, sheet.InsertRule(r, 3))
	assert.Equal(t, 4, sheet.Len())
}

func TestParseRuleRejectsMultiple(t *testing.T) {
	_, err := ParseRule(".a {} .b {}")
	assert.Error(t, err)
}

func TestDisableRestore(t *testing.T) {
	d := loadPage(t)
	sheet := d.StyleElements()[0].Sheet()

	restore := sheet.Disable()
	assert.True(t, sheet.Disabled())
	require.NoError(t, restore())
	assert.False(t, sheet.Disabled())

	sheet.SetDisabled(true)
	restore = sheet.Disable()
	require.NoError(t, restore())
	assert.True(t, sheet.Disabled(), "restore keeps the prior state")
}

func TestLayout(t *testing.T) {
	d := loadPage(t)
	cards, err := d.QuerySelectorAll(".card")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	require.NoError(t, d.Layout(context.Background()))
	style := d.ComputedStyle(cards[0])
	assert.Equal(t, "blue", style["color"], "important wins over later rules")
	assert.Equal(t, "4px", style["padding"])
	assert.Equal(t, "0", style["margin"])

	d.StyleElements()[0].Sheet().SetDisabled(true)
	require.NoError(t, d.Layout(context.Background()))
	style = d.ComputedStyle(cards[0])
	assert.Equal(t, "black", style["color"])
	assert.Empty(t, style["padding"])
}

func TestLayoutCancelled(t *testing.T) {
	d := loadPage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Layout(ctx), context.Canceled)
}

func TestObserve(t *testing.T) {
	d := loadPage(t)
	var records []MutationRecord
	disconnect := d.Observe(func(r MutationRecord) {
		records = append(records, r)
	})

	cards, err := d.QuerySelectorAll("p.other")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	p := cards[0]

	assert.True(t, p.ToggleClass("active"))
	assert.True(t, p.HasClass("active"))
	assert.False(t, p.ToggleClass("active"))

	child := d.Body().AppendElement("span", "item")
	child.Remove()

	disconnect()
	p.SetAttribute("id", "ignored")

	require.Len(t, records, 4)
	assert.Equal(t, MutationAttributes, records[0].Type)
	assert.Equal(t, "class", records[0].AttributeName)
	assert.Equal(t, "card other", records[0].OldValue)
	assert.Equal(t, "card other active", records[1].OldValue)
	assert.Equal(t, MutationChildList, records[2].Type)
	require.Len(t, records[2].Added, 1)
	assert.Equal(t, "span", records[2].Added[0].Tag())
	require.Len(t, records[3].Removed, 1)
}

func TestLayoutInvalidatedByMutation(t *testing.T) {
	d := loadPage(t)
	require.NoError(t, d.Layout(context.Background()))
	body := d.Body()
	require.NotNil(t, d.ComputedStyle(body))

	body.AddClass("x")
	assert.Nil(t, d.ComputedStyle(body))
}

func TestTagCountsAndMatches(t *testing.T) {
	d := loadPage(t)
	counts := d.TagCounts()
	assert.Equal(t, 2, counts["p"])
	assert.Equal(t, 1, counts["div"])
	assert.Equal(t, 4, counts["style"])

	n, err := d.Matches("#main .card")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = d.Matches("[[")
	assert.Error(t, err)
}

func TestRootAndChildren(t *testing.T) {
	d := loadPage(t)
	root := d.Root()
	require.NotNil(t, root)
	assert.Equal(t, "html", root.Tag())

	main, err := d.QuerySelectorAll("#main")
	require.NoError(t, err)
	require.Len(t, main, 1)
	assert.Equal(t, "main", main[0].ID())
	assert.Len(t, main[0].Children(), 2)
}

package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	"type": "object",
	"properties": map[string]any{
		"selector": map[string]any{"type": "string", "default": ".item", "description": "Elements to touch"},
		"count":    map[string]any{"type": "integer", "default": 10},
		"label":    map[string]any{"type": "string"},
	},
}

type testOptions struct {
	Selector string `json:"selector"`
	Count    int    `json:"count"`
	Label    string `json:"label"`
}

func TestValidate(t *testing.T) {
	require.Error(t, (*Scenario)(nil).Validate())
	require.Error(t, (&Scenario{Run: func(context.Context) error { return nil }}).Validate())
	require.Error(t, (&Scenario{ID: "x"}).Validate())
	require.NoError(t, (&Scenario{ID: "x", Run: func(context.Context) error { return nil }}).Validate())
}

func TestOptionalHooks(t *testing.T) {
	ctx := context.Background()
	s := &Scenario{ID: "x"}
	assert.NoError(t, s.DoSetupSuite(ctx))
	assert.NoError(t, s.DoSetup(ctx))
	assert.NoError(t, s.DoCleanup(ctx))
	assert.NoError(t, s.DoCleanupSuite(ctx))

	calls := 0
	s.Setup = func(context.Context) error { calls++; return nil }
	require.NoError(t, s.DoSetup(ctx))
	assert.Equal(t, 1, calls)
}

func TestSchemaProperties(t *testing.T) {
	props := testSchema.Properties()
	require.Len(t, props, 3)
	assert.Equal(t, "count", props[0].Name)
	assert.Equal(t, "integer", props[0].Type)
	assert.Equal(t, "Elements to touch", props[2].Description)
}

func TestSchemaDecode(t *testing.T) {
	var opts testOptions
	require.NoError(t, testSchema.Decode(map[string]any{"count": 3.0}, &opts))
	assert.Equal(t, testOptions{Selector: ".item", Count: 3}, opts)

	require.Error(t, testSchema.Decode(map[string]any{"bogus": 1}, &opts))
}

func TestParseOptions(t *testing.T) {
	values, err := ParseOptions([]string{"count=5", "selector=.row > td", "flag=true", `label="x=y"`})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"count":    5.0,
		"selector": ".row > td",
		"flag":     true,
		"label":    "x=y",
	}, values)

	_, err = ParseOptions([]string{"novalue"})
	require.Error(t, err)
	_, err = ParseOptions([]string{"=1"})
	require.Error(t, err)
}

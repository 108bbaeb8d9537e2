package inventory

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/uiprof/document"
)

func inlineMap(t *testing.T, sources ...string) string {
	t.Helper()
	body := `{"version":3,"sources":[`
	for i, s := range sources {
		if i > 0 {
			body += ","
		}
		body += `"` + s + `"`
	}
	body += `]}`
	return "/*# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(body)) + " */"
}

func loadStyles(t *testing.T, html string, opts ...document.Option) []*document.StyleElement {
	t.Helper()
	d, err := document.Parse(html, opts...)
	require.NoError(t, err)
	return d.StyleElements()
}

func TestCollect(t *testing.T) {
	page := `<html><head>
<style type="text/x-template">.ignored {}</style>
<style>.a { color: red; } @media print { .b { color: blue; } } .c { color: green; }` + inlineMap(t, "src/a.scss", "src/b.scss") + `</style>
<style>.d, .e { margin: 0; }</style>
</head><body></body></html>`

	records, err := Collect(context.Background(), loadStyles(t, page), nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, ".a", records[0].Selector)
	assert.Equal(t, 0, records[0].RuleIndex)
	assert.Equal(t, 1, records[0].StylesheetIndex)
	require.NotNil(t, records[0].Source)
	assert.Equal(t, "src/a.scss", *records[0].Source)

	assert.Equal(t, ".c", records[1].Selector)
	assert.Equal(t, 2, records[1].RuleIndex, "at-rules keep their slot")

	assert.Equal(t, ".d, .e", records[2].Selector)
	assert.Equal(t, 2, records[2].StylesheetIndex, "elements without a sheet are not counted")
	assert.Nil(t, records[2].Source)

	rule, err := records[1].Sheet.Rule(records[1].RuleIndex)
	require.NoError(t, err)
	assert.Same(t, records[1].Rule, rule)
}

func TestCollectSkip(t *testing.T) {
	page := `<style>.keep {} .skip-me {} .keep-too {}</style>`
	records, err := Collect(context.Background(), loadStyles(t, page), regexp.MustCompile(`^\.skip`), nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ".keep", records[0].Selector)
	assert.Equal(t, ".keep-too", records[1].Selector)
	assert.Equal(t, 2, records[1].RuleIndex)
}

func TestCollectNoSheet(t *testing.T) {
	page := `<template><style>.x {}</style></template>`
	records, err := Collect(context.Background(), loadStyles(t, page), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCollectRelativeSourceMap(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css.map"), []byte(`{"sources":["styles/app.less"]}`), 0o644))

	page := `<style>.a {} /*# sourceMappingURL=app.css.map */</style>`
	records, err := Collect(context.Background(), loadStyles(t, page), nil, NewFetcher(dir))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Source)
	assert.Equal(t, "styles/app.less", *records[0].Source)
}

func TestCollectHTTPSourceMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app.css.map" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"sources":["remote.css"]}`))
	}))
	defer srv.Close()

	page := `<style>.a {} /*# sourceMappingURL=` + srv.URL + `/app.css.map */</style>`
	records, err := Collect(context.Background(), loadStyles(t, page), nil, NewFetcher(""))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Source)
	assert.Equal(t, "remote.css", *records[0].Source)

	page = `<style>.a {} /*# sourceMappingURL=` + srv.URL + `/missing.map */</style>`
	_, err = Collect(context.Background(), loadStyles(t, page), nil, NewFetcher(""))
	assert.Error(t, err)
}

func TestCollectMalformedSourceMap(t *testing.T) {
	page := `<style>.a {} /*# sourceMappingURL=data:application/json;base64,bm90IGpzb24= */</style>`
	_, err := Collect(context.Background(), loadStyles(t, page), nil, nil)
	assert.ErrorContains(t, err, "failed to parse source map")
}

func TestCollectEmptySources(t *testing.T) {
	page := `<style>.a {}` + inlineMap(t) + `</style>`
	records, err := Collect(context.Background(), loadStyles(t, page), nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Source)
}

func TestSheets(t *testing.T) {
	page := `<style>.a {}` + inlineMap(t, "a.css") + `</style><style type="text/plain"></style><style>.b {} .c {}</style>`
	sheets, err := Sheets(context.Background(), loadStyles(t, page), nil)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, 1, sheets[0].StylesheetIndex)
	require.NotNil(t, sheets[0].Source)
	assert.Equal(t, "a.css", *sheets[0].Source)
	assert.Equal(t, 2, sheets[1].StylesheetIndex)
	assert.Equal(t, 2, sheets[1].Sheet.Len())
}

// Package inventory enumerates the style rules of a document together with
// the source file each style sheet was compiled from.
package inventory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/perfgo/uiprof/document"
)

// Record is one style rule of the live document.
type Record struct {
	Rule     *document.StyleRule
	Selector string
	Sheet    *document.StyleSheet
	// Source is the first source of the sheet's source map, or nil.
	Source *string
	// RuleIndex is the rule's position in Sheet.
	RuleIndex int
	// StylesheetIndex counts sheets from 1, skipping elements without one.
	StylesheetIndex int
}

var sourceMappingURL = regexp.MustCompile(`[#@]\s*sourceMappingURL=([^\s*]+)`)

// Sheet is a style sheet of the live document and its provenance.
type Sheet struct {
	Sheet  *document.StyleSheet
	Source *string
	// StylesheetIndex counts sheets from 1, skipping elements without one.
	StylesheetIndex int
}

// Sheets lists the style sheets attached to the given elements. A nil
// fetcher disables resolution of source maps that are not inlined.
func Sheets(ctx context.Context, elements []*document.StyleElement, fetcher Fetcher) ([]Sheet, error) {
	var sheets []Sheet
	for _, el := range elements {
		sheet := el.Sheet()
		if sheet == nil {
			continue
		}
		index := len(sheets) + 1

		source, err := resolveSource(ctx, el.TextContent(), fetcher)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source map of style sheet %d: %w", index, err)
		}
		sheets = append(sheets, Sheet{Sheet: sheet, Source: source, StylesheetIndex: index})
	}
	return sheets, nil
}

// Collect builds the rule inventory of the given style elements. Rules whose
// selector matches skip are left out.
func Collect(ctx context.Context, elements []*document.StyleElement, skip *regexp.Regexp, fetcher Fetcher) ([]Record, error) {
	sheets, err := Sheets(ctx, elements, fetcher)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, s := range sheets {
		for i, r := range s.Sheet.Rules() {
			rule, ok := r.(*document.StyleRule)
			if !ok {
				continue
			}
			if skip != nil && skip.MatchString(rule.Selector) {
				continue
			}
			records = append(records, Record{
				Rule:            rule,
				Selector:        rule.Selector,
				Sheet:           s.Sheet,
				Source:          s.Source,
				RuleIndex:       i,
				StylesheetIndex: s.StylesheetIndex,
			})
		}
	}
	return records, nil
}

type sourceMap struct {
	Sources []string `json:"sources"`
}

func resolveSource(ctx context.Context, text string, fetcher Fetcher) (*string, error) {
	matches := sourceMappingURL.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	url := matches[len(matches)-1][1]

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(url, "data:") {
		data, err = decodeDataURL(url)
	} else if fetcher != nil {
		data, err = fetcher.Fetch(ctx, url)
	} else {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sm sourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}
	if len(sm.Sources) == 0 {
		return nil, nil
	}
	return &sm.Sources[0], nil
}

func decodeDataURL(url string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if !strings.HasPrefix(meta, "application/json") {
		return nil, fmt.Errorf("unsupported source map media type %q", meta)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inline source map: %w", err)
	}
	return data, nil
}

package scenario

// options.go contains JSON-schema driven option handling. Only the parts
// of JSON schema needed for flat option objects are understood: the
// "properties" map with per-property "type", "default" and "description".

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Schema is a JSON schema object.
type Schema map[string]any

// Property describes one option.
type Property struct {
	Name        string
	Type        string
	Default     any
	Description string
}

// Properties lists the schema properties sorted by name.
func (s Schema) Properties() []Property {
	raw, _ := s["properties"].(map[string]any)
	props := make([]Property, 0, len(raw))
	for name, v := range raw {
		def, _ := v.(map[string]any)
		p := Property{Name: name, Default: def["default"]}
		p.Type, _ = def["type"].(string)
		p.Description, _ = def["description"].(string)
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	return props
}

// ApplyDefaults returns a copy of values with every missing property set
// to its schema default.
func (s Schema) ApplyDefaults(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, p := range s.Properties() {
		if _, ok := out[p.Name]; !ok && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}

// Decode applies the schema defaults to values, rejects unknown options and
// decodes the result into out (a pointer to a struct with json tags).
func (s Schema) Decode(values map[string]any, out any) error {
	known := make(map[string]bool)
	for _, p := range s.Properties() {
		known[p.Name] = true
	}
	for k := range values {
		if !known[k] {
			return fmt.Errorf("unknown option %q", k)
		}
	}

	data, err := json.Marshal(s.ApplyDefaults(values))
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}

// ParseOptions parses "key=value" pairs. Values that are valid JSON
// (numbers, booleans, quoted strings) are decoded, anything else is kept
// as a plain string.
func ParseOptions(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		values[key] = v
	}
	return values, nil
}

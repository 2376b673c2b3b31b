package handlers

import (
	"encoding/json"
	"strings"

	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"
)

// FieldSpec selects one output key, optionally narrowing a nested object.
type FieldSpec struct {
	Name  string
	Inner []FieldSpec
}

// ParseFields reads the fields parameter: "a,b", `["a",{"address":["city"]}]`,
// or the equivalent decoded list.
func ParseFields(v any) []FieldSpec {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			var list []any
			if err := json.Unmarshal([]byte(s), &list); err == nil {
				return ParseFields(list)
			}
		}
		out := []FieldSpec{}
		for _, name := range utils.SplitCSV(s) {
			out = append(out, FieldSpec{Name: name})
		}
		return out
	case []string:
		return ParseFields(strings.Join(t, ","))
	case []any:
		out := []FieldSpec{}
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, ParseFields(it)...)
			case map[string]any:
				for name, inner := range it {
					out = append(out, FieldSpec{Name: name, Inner: ParseFields(inner)})
				}
			}
		}
		return out
	}
	return nil
}

// Project keeps only the requested keys. No specs means everything.
func Project(rec models.Record, specs []FieldSpec) models.Record {
	if len(specs) == 0 || rec == nil {
		return rec
	}
	out := make(models.Record, len(specs))
	for _, s := range specs {
		v, ok := rec[s.Name]
		if !ok {
			continue
		}
		if nested, isMap := v.(map[string]any); isMap && len(s.Inner) > 0 {
			v = Project(nested, s.Inner)
		}
		out[s.Name] = v
	}
	return out
}

// FieldNames lists the top-level names of specs.
func FieldNames(specs []FieldSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Name)
	}
	return out
}

package property

import (
	"fmt"
	"strconv"
	"strings"
)

// FlattenValue projects one typed property value to plain JSON. The
// mapping is fixed: downstream output shapes depend on it. Unknown
// property types flatten to nil.
func FlattenValue(v Value) any {
	switch v.Type {
	case "title":
		return plainText(v.Title)
	case "rich_text":
		return plainText(v.RichText)
	case "number":
		if v.Number == nil {
			return nil
		}
		return *v.Number
	case "select":
		if v.Select == nil {
			return nil
		}
		return v.Select.Name
	case "status":
		if v.Status == nil {
			return nil
		}
		return v.Status.Name
	case "multi_select":
		names := make([]string, 0, len(v.MultiSelect))
		for _, s := range v.MultiSelect {
			names = append(names, s.Name)
		}
		return names
	case "date":
		if v.Date == nil {
			return nil
		}
		return map[string]any{"start": v.Date.Start, "end": endOrNil(v.Date.End)}
	case "people":
		people := make([]map[string]any, 0, len(v.People))
		for _, u := range v.People {
			people = append(people, map[string]any{"id": u.ID, "name": u.Name})
		}
		return people
	case "checkbox":
		return v.Checkbox != nil && *v.Checkbox
	case "url":
		return strOrNil(v.URL)
	case "email":
		return strOrNil(v.Email)
	case "phone_number":
		return strOrNil(v.PhoneNumber)
	case "relation":
		rels := make([]map[string]any, 0, len(v.Relation))
		for _, r := range v.Relation {
			rels = append(rels, map[string]any{"id": r.ID})
		}
		return rels
	case "rollup":
		return flattenRollup(v.Rollup)
	case "formula":
		return flattenFormula(v.Formula)
	case "files":
		files := make([]map[string]any, 0, len(v.Files))
		for _, f := range v.Files {
			files = append(files, map[string]any{"name": f.Name, "url": fileURL(f)})
		}
		return files
	case "created_time":
		return strOrNil(v.CreatedTime)
	case "last_edited_time":
		return strOrNil(v.LastEditedTime)
	case "created_by":
		return flattenUser(v.CreatedBy)
	case "last_edited_by":
		return flattenUser(v.LastEditedBy)
	case "unique_id":
		if v.UniqueID == nil {
			return nil
		}
		if v.UniqueID.Prefix != nil && *v.UniqueID.Prefix != "" {
			return fmt.Sprintf("%s-%d", *v.UniqueID.Prefix, v.UniqueID.Number)
		}
		return strconv.Itoa(v.UniqueID.Number)
	case "verification":
		if v.Verification == nil {
			return nil
		}
		return v.Verification.State
	default:
		return nil
	}
}

// FlattenAll projects a whole property map.
func FlattenAll(props map[string]Value) map[string]any {
	out := make(map[string]any, len(props))
	for name, v := range props {
		out[name] = FlattenValue(v)
	}
	return out
}

// ExtractTitle scans the property map for the entry typed "title" and
// returns its plain text. Pages carry exactly one title property; an
// empty string means none was found.
func ExtractTitle(props map[string]Value) string {
	for _, v := range props {
		if v.Type == "title" {
			return plainText(v.Title)
		}
	}
	return ""
}

// BuildValue coerces a plain JSON scalar into a writable property value
// payload. The mapping is heuristic and lossy: it cannot target
// rich_text, date, relation, people, or status columns by inference;
// callers needing those supply pre-shaped values, which pass through
// unchanged.
func BuildValue(v any) any {
	switch t := v.(type) {
	case string:
		return map[string]any{"select": map[string]any{"name": t}}
	case float64:
		return map[string]any{"number": t}
	case int:
		return map[string]any{"number": t}
	case bool:
		return map[string]any{"checkbox": t}
	case []any:
		opts := make([]map[string]any, 0, len(t))
		for _, item := range t {
			opts = append(opts, map[string]any{"name": fmt.Sprint(item)})
		}
		return map[string]any{"multi_select": opts}
	default:
		return v
	}
}

// BuildAll coerces every entry of a plain property map.
func BuildAll(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for name, v := range props {
		out[name] = BuildValue(v)
	}
	return out
}

func flattenRollup(r *Rollup) any {
	if r == nil {
		return nil
	}
	if r.Type == "array" {
		items := make([]any, 0, len(r.Array))
		for _, inner := range r.Array {
			items = append(items, FlattenValue(inner))
		}
		return items
	}
	// Non-array rollups flatten like the single inner value they carry.
	return FlattenValue(Value{
		Type:   r.Type,
		Number: r.Number,
		Date:   r.Date,
	})
}

func flattenFormula(f *Formula) any {
	if f == nil {
		return nil
	}
	switch f.Type {
	case "string":
		return strOrNil(f.String)
	case "number":
		if f.Number == nil {
			return nil
		}
		return *f.Number
	case "boolean":
		if f.Boolean == nil {
			return nil
		}
		return *f.Boolean
	case "date":
		if f.Date == nil {
			return nil
		}
		return map[string]any{"start": f.Date.Start, "end": endOrNil(f.Date.End)}
	default:
		return nil
	}
}

func flattenUser(u *UserValue) any {
	if u == nil {
		return nil
	}
	return map[string]any{"id": u.ID, "name": u.Name}
}

func fileURL(f FileValue) string {
	// Direct file urls win over external links.
	if f.File != nil && f.File.URL != "" {
		return f.File.URL
	}
	if f.External != nil {
		return f.External.URL
	}
	return ""
}

func plainText(spans []RichText) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.PlainText != "" {
			sb.WriteString(s.PlainText)
		} else if s.Text != nil {
			sb.WriteString(s.Text.Content)
		}
	}
	return sb.String()
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func endOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string   { return &s }
func numPtr(n float64) *float64 { return &n }
func boolPtr(b bool) *bool      { return &b }

func TestFlattenValue(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  any
	}{
		{"title", Value{Type: "title", Title: []RichText{{PlainText: "My "}, {PlainText: "Page"}}}, "My Page"},
		{"rich_text falls back to content", Value{Type: "rich_text", RichText: []RichText{{Text: &TextContent{Content: "raw"}}}}, "raw"},
		{"number", Value{Type: "number", Number: numPtr(3.5)}, 3.5},
		{"empty number", Value{Type: "number"}, nil},
		{"select", Value{Type: "select", Select: &SelectValue{Name: "High"}}, "High"},
		{"empty select", Value{Type: "select"}, nil},
		{"status", Value{Type: "status", Status: &SelectValue{Name: "Done"}}, "Done"},
		{"multi_select", Value{Type: "multi_select", MultiSelect: []SelectValue{{Name: "a"}, {Name: "b"}}}, []string{"a", "b"}},
		{"empty multi_select is a list not null", Value{Type: "multi_select"}, []string{}},
		{"date range", Value{Type: "date", Date: &DateValue{Start: "2024-01-01", End: strPtr("2024-01-05")}},
			map[string]any{"start": "2024-01-01", "end": "2024-01-05"}},
		{"open date", Value{Type: "date", Date: &DateValue{Start: "2024-01-01"}},
			map[string]any{"start": "2024-01-01", "end": nil}},
		{"checkbox", Value{Type: "checkbox", Checkbox: boolPtr(true)}, true},
		{"empty checkbox is false", Value{Type: "checkbox"}, false},
		{"url", Value{Type: "url", URL: strPtr("https://x")}, "https://x"},
		{"empty url", Value{Type: "url"}, nil},
		{"unique_id with prefix", Value{Type: "unique_id", UniqueID: &UniqueID{Prefix: strPtr("TASK"), Number: 42}}, "TASK-42"},
		{"unique_id without prefix", Value{Type: "unique_id", UniqueID: &UniqueID{Number: 7}}, "7"},
		{"formula string", Value{Type: "formula", Formula: &Formula{Type: "string", String: strPtr("out")}}, "out"},
		{"formula number", Value{Type: "formula", Formula: &Formula{Type: "number", Number: numPtr(9)}}, 9.0},
		{"formula boolean", Value{Type: "formula", Formula: &Formula{Type: "boolean", Boolean: boolPtr(false)}}, false},
		{"verification", Value{Type: "verification", Verification: &Verification{State: "verified"}}, "verified"},
		{"unknown type", Value{Type: "button"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenValue(tt.value))
		})
	}
}

func TestFlattenValueFiles(t *testing.T) {
	v := Value{Type: "files", Files: []FileValue{
		{Name: "direct", File: &FileURL{URL: "https://host/f"}, External: &FileURL{URL: "https://ext/f"}},
		{Name: "linked", External: &FileURL{URL: "https://ext/g"}},
	}}

	got := FlattenValue(v).([]map[string]any)
	assert.Equal(t, "https://host/f", got[0]["url"])
	assert.Equal(t, "https://ext/g", got[1]["url"])
}

func TestFlattenRollupArray(t *testing.T) {
	v := Value{Type: "rollup", Rollup: &Rollup{
		Type: "array",
		Array: []Value{
			{Type: "number", Number: numPtr(3)},
			{Type: "number", Number: numPtr(5)},
		},
	}}

	assert.Equal(t, []any{3.0, 5.0}, FlattenValue(v))
}

func TestFlattenRollupNumber(t *testing.T) {
	v := Value{Type: "rollup", Rollup: &Rollup{Type: "number", Number: numPtr(8)}}
	assert.Equal(t, 8.0, FlattenValue(v))
}

func TestExtractTitle(t *testing.T) {
	props := map[string]Value{
		"Status": {Type: "status", Status: &SelectValue{Name: "Done"}},
		"Name":   {Type: "title", Title: []RichText{{PlainText: "The Page"}}},
	}
	assert.Equal(t, "The Page", ExtractTitle(props))
}

func TestExtractTitleMissing(t *testing.T) {
	props := map[string]Value{
		"Status": {Type: "status", Status: &SelectValue{Name: "Done"}},
	}
	assert.Equal(t, "", ExtractTitle(props))
}

func TestBuildValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"string targets select", "High", map[string]any{"select": map[string]any{"name": "High"}}},
		{"float targets number", 3.5, map[string]any{"number": 3.5}},
		{"bool targets checkbox", true, map[string]any{"checkbox": true}},
		{"array targets multi_select", []any{"a", "b"},
			map[string]any{"multi_select": []map[string]any{{"name": "a"}, {"name": "b"}}}},
		{"pre-shaped object passes through",
			map[string]any{"date": map[string]any{"start": "2024-01-01"}},
			map[string]any{"date": map[string]any{"start": "2024-01-01"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildValue(tt.input))
		})
	}
}

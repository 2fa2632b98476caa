package infinitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffData(t *testing.T) {
	tests := []struct {
		name     string
		old      map[string]any
		new      map[string]any
		expected map[string]change
	}{
		{
			name:     "nil old yields no diff",
			old:      nil,
			new:      map[string]any{"a": "1"},
			expected: nil,
		},
		{
			name:     "nil new yields no diff",
			old:      map[string]any{"a": "1"},
			new:      nil,
			expected: nil,
		},
		{
			name:     "equal trees yield no diff",
			old:      map[string]any{"a": "1", "b": map[string]any{"c": "2"}},
			new:      map[string]any{"a": "1", "b": map[string]any{"c": "2"}},
			expected: nil,
		},
		{
			name:     "changed scalar",
			old:      map[string]any{"rt": "68.5"},
			new:      map[string]any{"rt": "69.0"},
			expected: map[string]change{"rt": {"68.5", "69.0"}},
		},
		{
			name:     "key only in new",
			old:      map[string]any{},
			new:      map[string]any{"oat": "55"},
			expected: map[string]change{"oat": {missingEntry, "55"}},
		},
		{
			name:     "key only in old",
			old:      map[string]any{"oat": "55"},
			new:      map[string]any{},
			expected: map[string]change{"oat": {"55", missingEntry}},
		},
		{
			name:     "nested maps recurse with slash paths",
			old:      map[string]any{"idu": map[string]any{"cfm": "900"}},
			new:      map[string]any{"idu": map[string]any{"cfm": "925"}},
			expected: map[string]change{"idu/cfm": {"900", "925"}},
		},
		{
			name: "lists compare by index",
			old:  map[string]any{"zone": []any{map[string]any{"rt": "68"}, "x"}},
			new:  map[string]any{"zone": []any{map[string]any{"rt": "70"}, "y", "z"}},
			expected: map[string]change{
				"zone[0]/rt": {"68", "70"},
				"zone[1]":    {"x", "y"},
				"zone[2]":    {missingEntry, "z"},
			},
		},
		{
			name:     "list shrinks",
			old:      map[string]any{"zone": []any{"a", "b"}},
			new:      map[string]any{"zone": []any{"a"}},
			expected: map[string]change{"zone[1]": {"b", missingEntry}},
		},
		{
			name:     "type mismatch records pair without panicking",
			old:      map[string]any{"otmr": map[string]any{}},
			new:      map[string]any{"otmr": "14:30"},
			expected: map[string]change{"otmr": {map[string]any{}, "14:30"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, diffData(tt.old, tt.new, ""))
		})
	}
}

func TestDiffDataSymmetric(t *testing.T) {
	old := map[string]any{"a": "1", "b": map[string]any{"c": "2"}, "only": "x"}
	new := map[string]any{"a": "9", "b": map[string]any{"c": "3"}}

	forward := diffData(old, new, "")
	backward := diffData(new, old, "")

	assert.Len(t, backward, len(forward))
	for path, c := range forward {
		rev, ok := backward[path]
		assert.True(t, ok, "path %s missing in reverse diff", path)
		assert.Equal(t, c[0], rev[1])
		assert.Equal(t, c[1], rev[0])
	}
}

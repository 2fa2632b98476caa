package infinitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{
			name:     "scalar passes through",
			input:    "auto",
			expected: "auto",
		},
		{
			name:     "single item list collapses",
			input:    []any{"auto"},
			expected: "auto",
		},
		{
			name:     "nested single item lists collapse fully",
			input:    []any{[]any{[]any{"72"}}},
			expected: "72",
		},
		{
			name:     "multi item list keeps length and order",
			input:    []any{"a", "b", "c"},
			expected: []any{"a", "b", "c"},
		},
		{
			name:     "empty list stays empty",
			input:    []any{},
			expected: []any{},
		},
		{
			name: "map values simplified recursively",
			input: map[string]any{
				"fan":   []any{"auto"},
				"zones": []any{map[string]any{"zone": []any{map[string]any{"id": []any{"1"}}, map[string]any{"id": []any{"2"}}}}},
			},
			expected: map[string]any{
				"fan":   "auto",
				"zones": map[string]any{"zone": []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, simplify(tt.input))
		})
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	input := map[string]any{
		"a": []any{map[string]any{"b": []any{"1", "2"}}},
		"c": []any{[]any{"x"}},
	}
	once := simplify(input)
	assert.Equal(t, once, simplify(once))
}

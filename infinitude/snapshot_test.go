package infinitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentLookupsAreTotal(t *testing.T) {
	doc := Document{
		"idu": map[string]any{
			"type": "furnacemodulating",
			"cfm":  "925",
		},
		"oat":   "55",
		"blank": "",
		"otmr":  map[string]any{},
		"count": float64(3),
	}

	s, ok := doc.getString("idu", "type")
	assert.True(t, ok)
	assert.Equal(t, "furnacemodulating", s)

	_, ok = doc.getString("blank")
	assert.False(t, ok, "empty string reads as absent")

	_, ok = doc.getString("otmr")
	assert.False(t, ok, "non-string reads as absent")

	_, ok = doc.getString("idu", "missing", "deeper")
	assert.False(t, ok)

	f, ok := doc.getFloat("idu", "cfm")
	assert.True(t, ok)
	assert.Equal(t, 925.0, f)

	n, ok := doc.getInt("count")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = doc.getFloat("oat", "too", "deep")
	assert.False(t, ok)

	var nilDoc Document
	_, ok = nilDoc.getString("anything")
	assert.False(t, ok)
}

func TestDocumentGetList(t *testing.T) {
	doc := Document{
		"zones": map[string]any{
			"zone": []any{
				map[string]any{"id": "1"},
				map[string]any{"id": "2"},
			},
		},
		"single": map[string]any{
			"zone": map[string]any{"id": "1"},
		},
	}

	zones, ok := doc.getList("zones", "zone")
	assert.True(t, ok)
	assert.Len(t, zones, 2)

	// A collapsed single-item list reads back as one element.
	zones, ok = doc.getList("single", "zone")
	assert.True(t, ok)
	assert.Len(t, zones, 1)

	_, ok = doc.getList("absent")
	assert.False(t, ok)
}

package jsonwalk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestFindFirst(t *testing.T) {
	doc := decode(t, `{
		"modules": [
			{"header": "deals"},
			{"items": [
				{"name": "Eggs", "price": "2.49"},
				{"name": "Milk", "price": "3.19"}
			]}
		]
	}`)

	node, ok := FindFirst(doc, func(n Node) bool {
		return String(n, "name") != ""
	})
	require.True(t, ok)
	assert.Equal(t, "Eggs", node["name"])

	_, ok = FindFirst(doc, func(n Node) bool {
		return String(n, "missing") != ""
	})
	assert.False(t, ok)
}

func TestFindFirstDocumentOrderInArrays(t *testing.T) {
	doc := decode(t, `[{"id": "a"}, {"id": "b"}, {"id": "c"}]`)

	node, ok := FindFirst(doc, func(n Node) bool {
		return String(n, "id") != "a"
	})
	require.True(t, ok)
	assert.Equal(t, "b", node["id"])
}

func TestFlatten(t *testing.T) {
	doc := decode(t, `{
		"categories": [
			{"deals": [{"name": "Bread"}, {"name": "Butter"}]},
			{"name": "Dairy"}
		]
	}`)

	nodes := Flatten(doc)
	var names []string
	for _, n := range nodes {
		if s := String(n, "name"); s != "" {
			names = append(names, s)
		}
	}
	assert.ElementsMatch(t, []string{"Bread", "Butter", "Dairy"}, names)
}

func TestFirstString(t *testing.T) {
	n := Node{"title": "Large Eggs", "price": 2.49}

	assert.Equal(t, "Large Eggs", FirstString(n, "name", "title"))
	assert.Equal(t, "", FirstString(n, "price"))
	assert.Equal(t, "", FirstString(n, "absent"))
}

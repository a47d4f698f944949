package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBiMap(t *testing.T) {
	biMap := NewBiMap(map[int]string{
		1: "presto",
		2: "hive",
	})

	t.Run("Lookup", func(t *testing.T) {
		val, ok := biMap.Lookup(1)
		assert.True(t, ok)
		assert.Equal(t, "presto", val)

		val, ok = biMap.Lookup(3)
		assert.False(t, ok)
		assert.Empty(t, val)
	})

	t.Run("RLookup", func(t *testing.T) {
		key, ok := biMap.RLookup("hive")
		assert.True(t, ok)
		assert.Equal(t, 2, key)

		key, ok = biMap.RLookup("spark")
		assert.False(t, ok)
		assert.Zero(t, key)
	})

	t.Run("Values are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"hive", "presto"}, biMap.Values())
		assert.Equal(t, 2, biMap.Len())
	})

	t.Run("EmptyMap", func(t *testing.T) {
		empty := NewBiMap(map[string]string{})
		_, ok := empty.Lookup("anything")
		assert.False(t, ok)
		assert.Empty(t, empty.Values())
	})

	t.Run("Source map changes are not visible", func(t *testing.T) {
		input := map[string]string{"csv": "CSV"}
		m := NewBiMap(input)

		input["csv"] = "changed"
		input["tsv"] = "TSV"

		val, ok := m.Lookup("csv")
		assert.True(t, ok)
		assert.Equal(t, "CSV", val)

		_, ok = m.Lookup("tsv")
		assert.False(t, ok)

		_, ok = m.RLookup("changed")
		assert.False(t, ok)
	})
}

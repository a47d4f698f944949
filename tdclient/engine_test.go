package tdclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_String(t *testing.T) {
	assert.Equal(t, "presto", EnginePresto.String())
	assert.Equal(t, "hive", EngineHive.String())
	assert.Equal(t, "engine(99)", Engine(99).String())
}

func TestParseEngine(t *testing.T) {
	t.Run("Known values", func(t *testing.T) {
		e, err := ParseEngine("hive")
		require.NoError(t, err)
		assert.Equal(t, EngineHive, e)
	})

	t.Run("Case and blanks are ignored", func(t *testing.T) {
		e, err := ParseEngine(" Presto ")
		require.NoError(t, err)
		assert.Equal(t, EnginePresto, e)
	})

	t.Run("Unknown value", func(t *testing.T) {
		e, err := ParseEngine("spark")
		require.Error(t, err)
		assert.Equal(t, EnginePresto, e)
		assert.Contains(t, err.Error(), "hive, presto")
	})
}

func TestEngineNames(t *testing.T) {
	assert.Equal(t, []string{"hive", "presto"}, EngineNames())
}

func TestEngine_MarshalText(t *testing.T) {
	b, err := EngineHive.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "hive", string(b))

	_, err = Engine(42).MarshalText()
	assert.Error(t, err)
}

func TestEngine_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Engine Engine `json:"engine"`
	}

	original := wrapper{Engine: EngineHive}
	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hive"`)

	var decoded wrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"engine":"spark"}`), &decoded))
}

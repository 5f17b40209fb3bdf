package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestIDDecoding(t *testing.T) {
	tests := []struct {
		name string
		json string
		want ID
	}{
		{"string", `"E1"`, "E1"},
		{"integer", `10`, "10"},
		{"decimal", `2.5`, "2.5"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.json), &id))
			assert.Equal(t, tt.want, id)
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
	assert.Error(t, yaml.Unmarshal([]byte(`[1, 2]`), &id))
}

func TestManifestDecodingKeepsEmptyDualUse(t *testing.T) {
	var m SupplierManifest
	require.NoError(t, json.Unmarshal([]byte(`{"supplier":"A","sml":[],"dual_use":[]}`), &m))
	assert.Equal(t, "A", m.Supplier)
	assert.NotNil(t, m.DualUse)
	assert.Empty(t, m.DualUse)

	require.NoError(t, yaml.Unmarshal([]byte("supplier: B\nsml:\n  - id: 3\n    value: 0.5\n"), &m))
	assert.Equal(t, []SMLEntry{{SubstanceID: "3", Value: 0.5}}, m.SML)
	assert.Nil(t, m.DualUse)
}

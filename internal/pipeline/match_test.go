package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBestMatch(t *testing.T) {
	m := NewMatcher([]string{"PET", "PE-EVOH", "PE EVOH", "OPP met"})

	cases := []struct {
		query string
		want  string
		ok    bool
	}{
		{query: "pet", want: "PET", ok: true},
		{query: " pe_evoh ", want: "PE-EVOH", ok: true},
		{query: "PE EVOH", want: "PE-EVOH", ok: true},
		{query: "OPP-MET", want: "OPP met", ok: true},
		{query: "PE", ok: false},
		{query: "", ok: false},
		{query: "//", ok: false},
	}
	for _, tc := range cases {
		got, ok := m.FindBestMatch(tc.query)
		assert.Equal(t, tc.ok, ok, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestParseStructure(t *testing.T) {
	m := NewMatcher([]string{"PET", "PE"})

	res := m.ParseStructure("PET/UNKNOWNMAT")
	assert.Equal(t, []string{"PET", "UNKNOWNMAT"}, res.Materials)
	assert.False(t, res.AllFound)
	assert.Equal(t, []string{"UNKNOWNMAT"}, res.Unmatched)

	res = m.ParseStructure(" pet / pe ")
	assert.Equal(t, []string{"PET", "PE"}, res.Materials)
	assert.True(t, res.AllFound)
	assert.Empty(t, res.Unmatched)

	res = m.ParseStructure("PET//PE")
	assert.Len(t, res.Materials, 3)
	assert.Equal(t, "", res.Materials[1])
	assert.False(t, res.AllFound)
}

func TestParseStructureEmpty(t *testing.T) {
	m := NewMatcher([]string{"PET"})
	res := m.ParseStructure("")
	assert.Empty(t, res.Materials)
	assert.False(t, res.AllFound)

	res = m.ParseStructure("   ")
	assert.Equal(t, []string{""}, res.Materials)
	assert.Equal(t, []string{""}, res.Unmatched)
	assert.False(t, res.AllFound)
}

func TestSuggest(t *testing.T) {
	m := NewMatcher([]string{"PET", "PE-EVOH", "OPP", "ALU"})

	got := m.Suggest("PE EVO", 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "PE-EVOH", got[0].Name)
	assert.LessOrEqual(t, len(got), 2)

	_, ok := m.FindBestMatch("PE EVO")
	assert.False(t, ok)

	assert.Nil(t, m.Suggest("", 3))
	assert.Nil(t, m.Suggest("PET", 0))
}

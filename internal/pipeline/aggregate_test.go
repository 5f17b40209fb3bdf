package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
)

func testCatalog() *catalog.Data {
	data := catalog.NewData()
	data.Materials["PET"] = []internal.SupplierManifest{
		{Supplier: "Jindal", SML: []internal.SMLEntry{{SubstanceID: "1", Value: 5}, {SubstanceID: "10", Value: 0.05}}, DualUse: []string{"10", "20"}},
		{Supplier: "Terphane", SML: []internal.SMLEntry{{SubstanceID: "2", Value: 30}}, DualUse: []string{}},
	}
	data.Materials["PE"] = []internal.SupplierManifest{
		{Supplier: "Plasticos", SML: []internal.SMLEntry{{SubstanceID: "1", Value: 8}}, DualUse: []string{"20", "30"}},
	}
	data.Materials["PE-EVOH"] = []internal.SupplierManifest{
		{Supplier: "Kuraray", SML: []internal.SMLEntry{{SubstanceID: "99", Value: 1}}, DualUse: []string{"40"}},
	}
	data.Materials["ALU"] = []internal.SupplierManifest{}

	data.Substances["1"] = internal.SubstanceRecord{CAS: "100-21-0", NameEN: "terephthalic acid", NamePL: "kwas tereftalowy", RefNo: "24910"}
	data.Substances["2"] = internal.SubstanceRecord{CAS: "107-21-1", NameEN: "ethylene glycol", RefNo: "16990"}
	data.Substances["10"] = internal.SubstanceRecord{CAS: "80-05-7", NameEN: "bisphenol A", NamePL: "bisfenol A", RefNo: "13480"}

	data.DualUse["10"] = internal.DualUseRecord{NameEN: "citric acid", NamePL: "kwas cytrynowy", ESymbol: "E330"}
	data.DualUse["20"] = internal.DualUseRecord{NameEN: "calcium carbonate"}
	data.DualUse["30"] = internal.DualUseRecord{ESymbol: "E170"}
	data.DualUse["40"] = internal.DualUseRecord{}
	return data
}

func substanceIDs(p internal.AggregatedPayload) []string {
	out := make([]string, 0, len(p.Substances))
	for _, s := range p.Substances {
		out = append(out, s.SubstanceID)
	}
	return out
}

func TestAggregateMaxReduction(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PET", "PE"})

	require.Equal(t, []string{"1", "2", "10"}, substanceIDs(p))
	assert.Equal(t, 8.0, p.Substances[0].SMLValue)
	assert.Equal(t, "8", p.Substances[0].SMLLimit)
	assert.Equal(t, "0.05", p.Substances[2].SMLLimit)
}

func TestAggregateNamesAndRegistryFields(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PET"})

	require.Len(t, p.Substances, 3)
	assert.Equal(t, internal.SubstanceRow{SubstanceID: "1", Ref: "24910", CAS: "100-21-0", Name: "kwas tereftalowy", SMLLimit: "5", SMLValue: 5}, p.Substances[0])
	assert.Equal(t, "ethylene glycol", p.Substances[1].Name, "english fallback")
}

func TestAggregateDualUseUnion(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PET", "PE"})

	assert.Equal(t, []string{"kwas cytrynowy (E330)", "calcium carbonate", "E170"}, p.DualUse)
}

func TestAggregateDropsDualUseWithoutNameOrSymbol(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PE-EVOH"})

	assert.Empty(t, p.DualUse)
	assert.Empty(t, p.Diagnostics.UnresolvedDualUseIDs)
}

func TestAggregateOrderInvariance(t *testing.T) {
	agg := NewAggregator(testCatalog())
	a := agg.Aggregate([]string{"PET", "PE"})
	b := agg.Aggregate([]string{"PE", "PET"})

	assert.Equal(t, a.Substances, b.Substances)
	assert.Equal(t, a.DualUse, b.DualUse)
}

func TestAggregateIdempotent(t *testing.T) {
	agg := NewAggregator(testCatalog())
	first, err := json.Marshal(agg.Aggregate([]string{"PET", "PE", "PE-EVOH"}))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(agg.Aggregate([]string{"PET", "PE", "PE-EVOH"}))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestAggregateMissingMaterial(t *testing.T) {
	agg := NewAggregator(testCatalog())
	alone := agg.Aggregate([]string{"PET"})
	withMissing := agg.Aggregate([]string{"PET", "NONEXISTENT"})

	assert.Equal(t, alone.Substances, withMissing.Substances)
	assert.Equal(t, alone.DualUse, withMissing.DualUse)
	assert.Equal(t, []string{"NONEXISTENT"}, withMissing.Diagnostics.UnresolvedMaterials)
	assert.True(t, alone.Diagnostics.Empty())
}

func TestAggregateResolvesNormalizedNames(t *testing.T) {
	data := testCatalog()
	data.Materials["PE EVOH"] = []internal.SupplierManifest{
		{Supplier: "Other", SML: []internal.SMLEntry{{SubstanceID: "2", Value: 1}}},
	}

	agg := NewAggregator(data)
	p := agg.Aggregate([]string{"pet"})
	assert.Empty(t, p.Diagnostics.UnresolvedMaterials)
	assert.Equal(t, []string{"1", "2", "10"}, substanceIDs(p))

	p = agg.Aggregate([]string{"pe/evoh"})
	assert.Empty(t, p.Diagnostics.UnresolvedMaterials)
	assert.Equal(t, []string{"2"}, substanceIDs(p))
}

func TestAggregateMaterialWithoutSuppliers(t *testing.T) {
	agg := NewAggregator(testCatalog())
	p := agg.Aggregate([]string{"PE", "ALU"})

	assert.Equal(t, agg.Aggregate([]string{"PE"}).Substances, p.Substances)
	assert.Equal(t, []string{"ALU"}, p.Diagnostics.UnresolvedMaterials)
}

func TestAggregateUnresolvedSubstance(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PE-EVOH"})

	require.Len(t, p.Substances, 1)
	assert.Equal(t, internal.SubstanceRow{SubstanceID: "99", SMLLimit: "1", SMLValue: 1}, p.Substances[0])
	assert.Equal(t, []string{"99"}, p.Diagnostics.UnresolvedSubstanceIDs)
}

func TestAggregateThreeLayers(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PET", "pe evoh", "PE"})

	assert.Equal(t, []string{"1", "2", "10", "99"}, substanceIDs(p))
	assert.Empty(t, p.Diagnostics.UnresolvedMaterials)
}

func TestAggregateEmptyInput(t *testing.T) {
	p := NewAggregator(nil).Aggregate(nil)
	assert.Empty(t, p.Substances)
	assert.Empty(t, p.DualUse)
	assert.True(t, p.Diagnostics.Empty())
}

func TestLessID(t *testing.T) {
	ids := map[string]struct{}{"10": {}, "9": {}, "b": {}, "a": {}, "100": {}}
	assert.Equal(t, []string{"9", "10", "100", "a", "b"}, sortedIDs(ids))
}

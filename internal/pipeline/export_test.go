package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
)

func TestExportPayloadToXLSX(t *testing.T) {
	p := NewAggregator(testCatalog()).Aggregate([]string{"PET", "PE-EVOH", "PAPER"})
	d := &declaration.Declaration{Substances: p.Substances, DualUse: p.DualUse, Diagnostics: p.Diagnostics}

	out := filepath.Join(t.TempDir(), "nested", "payload.xlsx")
	require.NoError(t, ExportPayloadToXLSX(d, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetSubstances)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(p.Substances))
	assert.Equal(t, []string{"id", "ref_no", "cas", "name", "sml_limit"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "kwas tereftalowy", rows[1][3])

	rows, err = f.GetRows(SheetDiagnostics)
	require.NoError(t, err)
	assert.Contains(t, rows, []string{"unresolved_material", "PAPER"})
	assert.Contains(t, rows, []string{"unresolved_substance_id", "99"})
}

func TestRegistryXLSXRoundTrip(t *testing.T) {
	data := testCatalog()
	out := filepath.Join(t.TempDir(), "registry.xlsx")
	require.NoError(t, ExportRegistryToXLSX(data, out))

	subs, dual, err := ImportRegistryXLSX(out)
	require.NoError(t, err)
	assert.Equal(t, data.Substances, subs)

	assert.Equal(t, data.DualUse, dual)
}

func TestImportRegistryMissingColumn(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), SheetSubstances))
	require.NoError(t, f.SetCellValue(SheetSubstances, "A1", "id"))
	_, err := f.NewSheet(SheetDualUse)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, _, err = ImportRegistryXLSX(path)
	assert.ErrorContains(t, err, "missing column")
}

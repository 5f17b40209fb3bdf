package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
)

const (
	SheetSubstances  = "substances"
	SheetDualUse     = "dual_use"
	SheetDiagnostics = "diagnostics"
)

var (
	payloadSubstanceHeaders = []string{"id", "ref_no", "cas", "name", "sml_limit"}
	registrySubstanceHeader = []string{"id", "cas", "name_en", "name_pl", "ref_no"}
	registryDualUseHeader   = []string{"id", "cas", "name_en", "name_pl", "e_symbol"}
)

// ExportPayloadToXLSX writes the substance table, dual-use list and diagnostics of a declaration.
func ExportPayloadToXLSX(d *declaration.Declaration, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSubstances); err != nil {
		return err
	}
	writeRow(f, SheetSubstances, 1, toAny(payloadSubstanceHeaders)...)
	for i, row := range d.Substances {
		writeRow(f, SheetSubstances, i+2, row.SubstanceID, row.Ref, row.CAS, row.Name, row.SMLValue)
	}

	if _, err := f.NewSheet(SheetDualUse); err != nil {
		return err
	}
	writeRow(f, SheetDualUse, 1, "dual_use")
	for i, label := range d.DualUse {
		writeRow(f, SheetDualUse, i+2, label)
	}

	if _, err := f.NewSheet(SheetDiagnostics); err != nil {
		return err
	}
	writeRow(f, SheetDiagnostics, 1, "kind", "value")
	r := 2
	for _, group := range []struct {
		kind   string
		values []string
	}{
		{"unmatched_segment", d.Diagnostics.UnmatchedSegments},
		{"unresolved_material", d.Diagnostics.UnresolvedMaterials},
		{"unresolved_substance_id", d.Diagnostics.UnresolvedSubstanceIDs},
		{"unresolved_dual_use_id", d.Diagnostics.UnresolvedDualUseIDs},
	} {
		for _, v := range group.values {
			writeRow(f, SheetDiagnostics, r, group.kind, v)
			r++
		}
	}

	return save(f, outputPath)
}

// ExportRegistryToXLSX writes both master registries, one sheet each, sorted by ID.
func ExportRegistryToXLSX(data *catalog.Data, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSubstances); err != nil {
		return err
	}
	writeRow(f, SheetSubstances, 1, toAny(registrySubstanceHeader)...)
	for i, id := range sortedIDs(data.Substances) {
		s := data.Substances[id]
		writeRow(f, SheetSubstances, i+2, id, s.CAS, s.NameEN, s.NamePL, s.RefNo)
	}

	if _, err := f.NewSheet(SheetDualUse); err != nil {
		return err
	}
	writeRow(f, SheetDualUse, 1, toAny(registryDualUseHeader)...)
	for i, id := range sortedIDs(data.DualUse) {
		r := data.DualUse[id]
		writeRow(f, SheetDualUse, i+2, id, r.CAS, r.NameEN, r.NamePL, r.ESymbol)
	}

	return save(f, outputPath)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, value)
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func save(f *excelize.File, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

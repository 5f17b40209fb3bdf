package pipeline

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Serafin06/DeclarationGenerator/internal"
)

// ImportRegistryXLSX reads a workbook produced by ExportRegistryToXLSX. Columns
// are located by header name; rows without an ID are skipped.
func ImportRegistryXLSX(path string) (map[string]internal.SubstanceRecord, map[string]internal.DualUseRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	subRows, err := f.GetRows(SheetSubstances)
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", SheetSubstances, err)
	}
	duRows, err := f.GetRows(SheetDualUse)
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", SheetDualUse, err)
	}

	substances := map[string]internal.SubstanceRecord{}
	err = eachRecord(subRows, registrySubstanceHeader, func(get func(string) string) {
		substances[get("id")] = internal.SubstanceRecord{
			CAS:    get("cas"),
			NameEN: get("name_en"),
			NamePL: get("name_pl"),
			RefNo:  get("ref_no"),
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", SheetSubstances, err)
	}

	dualUse := map[string]internal.DualUseRecord{}
	err = eachRecord(duRows, registryDualUseHeader, func(get func(string) string) {
		dualUse[get("id")] = internal.DualUseRecord{
			CAS:     get("cas"),
			NameEN:  get("name_en"),
			NamePL:  get("name_pl"),
			ESymbol: get("e_symbol"),
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", SheetDualUse, err)
	}

	return substances, dualUse, nil
}

func eachRecord(rows [][]string, required []string, fn func(get func(string) string)) error {
	if len(rows) == 0 {
		return fmt.Errorf("missing header row")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range required {
		if _, ok := cols[h]; !ok {
			return fmt.Errorf("missing column %q", h)
		}
	}

	for _, row := range rows[1:] {
		get := func(name string) string {
			i := cols[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if get("id") == "" {
			continue
		}
		fn(get)
	}
	return nil
}

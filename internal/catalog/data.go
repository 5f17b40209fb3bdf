package catalog

import (
	"errors"
	"sort"
	"time"

	"github.com/Serafin06/DeclarationGenerator/internal"
)

// ErrDataUnavailable marks a catalog that could not be read at all, as opposed to an
// empty or partial one.
var ErrDataUnavailable = errors.New("catalog data unavailable")

// Data is one immutable snapshot of the catalog and its registries.
type Data struct {
	Materials  map[string][]internal.SupplierManifest
	Substances map[string]internal.SubstanceRecord
	DualUse    map[string]internal.DualUseRecord
	Texts      map[string]map[string]any
	LoadedAt   time.Time
}

func NewData() *Data {
	return &Data{
		Materials:  map[string][]internal.SupplierManifest{},
		Substances: map[string]internal.SubstanceRecord{},
		DualUse:    map[string]internal.DualUseRecord{},
		Texts:      map[string]map[string]any{},
	}
}

// MaterialNames returns the catalog names in ascending order.
func (d *Data) MaterialNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Materials))
	for name := range d.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifests returns every supplier manifest registered under the exact catalog name.
func (d *Data) Manifests(name string) []internal.SupplierManifest {
	if d == nil {
		return nil
	}
	return d.Materials[name]
}

// TextsFor returns the boilerplate for a language, or nil when none was loaded.
func (d *Data) TextsFor(lang string) map[string]any {
	if d == nil {
		return nil
	}
	return d.Texts[lang]
}

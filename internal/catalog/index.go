package catalog

import (
	"github.com/Serafin06/DeclarationGenerator/internal/util"
)

// Index maps normalized material keys back to catalog names.
type Index struct {
	Names            []string
	ByKey            map[string][]string
	NameTokens       map[string][]string
	NormalizedByName map[string]string
	SupplierCount    map[string]int
}

// IndexNames indexes names in the given order; on a key collision the earlier
// name is listed first.
func IndexNames(names []string) *Index {
	idx := &Index{
		Names:            make([]string, 0, len(names)),
		ByKey:            map[string][]string{},
		NameTokens:       map[string][]string{},
		NormalizedByName: map[string]string{},
		SupplierCount:    map[string]int{},
	}

	for _, name := range names {
		if _, seen := idx.NormalizedByName[name]; seen {
			continue
		}
		idx.Names = append(idx.Names, name)
		key := util.NormalizeMaterialName(name)
		idx.NormalizedByName[name] = key
		if key != "" {
			idx.ByKey[key] = append(idx.ByKey[key], name)
		}
		idx.NameTokens[name] = util.Tokenize(name)
	}

	return idx
}

// BuildIndex indexes every material of a snapshot and records its supplier count.
func BuildIndex(data *Data) *Index {
	idx := IndexNames(data.MaterialNames())
	for _, name := range idx.Names {
		idx.SupplierCount[name] = len(data.Manifests(name))
	}
	return idx
}

// Collisions lists keys that more than one catalog name normalizes to.
func (idx *Index) Collisions() map[string][]string {
	out := map[string][]string{}
	for key, names := range idx.ByKey {
		if len(names) > 1 {
			out[key] = append([]string(nil), names...)
		}
	}
	return out
}

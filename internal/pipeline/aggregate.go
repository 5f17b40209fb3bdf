package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/util"
)

// Aggregator merges the supplier manifests of a laminate's layers into one
// declaration payload. It only reads the snapshot it was built with.
type Aggregator struct {
	data    *catalog.Data
	matcher *Matcher
}

func NewAggregator(data *catalog.Data) *Aggregator {
	if data == nil {
		data = catalog.NewData()
	}
	return &Aggregator{data: data, matcher: NewMatcher(data.MaterialNames())}
}

// Aggregate takes every supplier manifest of every named material, keeps the
// highest SML per substance and the union of dual-use IDs. Materials that are
// missing or have no manifests contribute nothing and are listed in the diagnostics.
// A name that is not an exact catalog key is resolved through the normalized
// matcher, so "pet" aggregates PET; when several catalog names share a key the
// first in sorted order wins.
func (a *Aggregator) Aggregate(names []string) internal.AggregatedPayload {
	diag := internal.Diagnostics{
		UnresolvedMaterials:    []string{},
		UnresolvedSubstanceIDs: []string{},
		UnresolvedDualUseIDs:   []string{},
		UnmatchedSegments:      []string{},
	}
	sml := map[string]float64{}
	dualUse := map[string]struct{}{}

	for _, name := range names {
		manifests, ok := a.manifests(name)
		if !ok || len(manifests) == 0 {
			diag.UnresolvedMaterials = appendUnique(diag.UnresolvedMaterials, name)
			continue
		}
		for _, m := range manifests {
			for _, e := range m.SML {
				if cur, seen := sml[e.SubstanceID]; !seen || e.Value > cur {
					sml[e.SubstanceID] = e.Value
				}
			}
			for _, id := range m.DualUse {
				dualUse[id] = struct{}{}
			}
		}
	}

	payload := internal.AggregatedPayload{
		Substances: make([]internal.SubstanceRow, 0, len(sml)),
		DualUse:    make([]string, 0, len(dualUse)),
	}

	for _, id := range sortedIDs(sml) {
		rec, ok := a.data.Substances[id]
		if !ok {
			diag.UnresolvedSubstanceIDs = append(diag.UnresolvedSubstanceIDs, id)
		}
		payload.Substances = append(payload.Substances, internal.SubstanceRow{
			SubstanceID: id,
			Ref:         rec.RefNo,
			CAS:         rec.CAS,
			Name:        preferPolish(rec.NamePL, rec.NameEN),
			SMLLimit:    util.FormatNumber(sml[id]),
			SMLValue:    sml[id],
		})
	}

	for _, id := range sortedIDs(dualUse) {
		rec, ok := a.data.DualUse[id]
		if !ok {
			diag.UnresolvedDualUseIDs = append(diag.UnresolvedDualUseIDs, id)
			continue
		}
		if label := dualUseLabel(rec); label != "" {
			payload.DualUse = append(payload.DualUse, label)
		}
	}

	payload.Diagnostics = diag
	return payload
}

// manifests prefers the exact catalog key and falls back to the normalized match.
func (a *Aggregator) manifests(name string) ([]internal.SupplierManifest, bool) {
	if m, ok := a.data.Materials[name]; ok {
		return m, true
	}
	resolved, ok := a.matcher.FindBestMatch(name)
	if !ok {
		return nil, false
	}
	return a.data.Materials[resolved], true
}

func preferPolish(pl, en string) string {
	if strings.TrimSpace(pl) != "" {
		return pl
	}
	return en
}

func dualUseLabel(rec internal.DualUseRecord) string {
	name := strings.TrimSpace(preferPolish(rec.NamePL, rec.NameEN))
	symbol := strings.TrimSpace(rec.ESymbol)
	switch {
	case name != "" && symbol != "":
		return name + " (" + symbol + ")"
	case name != "":
		return name
	default:
		return symbol
	}
}

// sortedIDs orders IDs numerically when they are integers; integer IDs sort
// before any non-numeric ones, which sort lexically.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids
}

func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

package pipeline

import (
	"sort"
	"strings"

	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/util"
)

// Matcher resolves free-text material names to catalog names. A match is
// binary: the normalized query must equal a normalized catalog name.
type Matcher struct {
	index *catalog.Index
}

func NewMatcher(names []string) *Matcher {
	return &Matcher{index: catalog.IndexNames(names)}
}

// StructureMatch is the result of resolving a "A/B/C" structure string.
// Materials always has one entry per segment; unmatched segments keep their
// trimmed text. Only an empty string yields no segments.
type StructureMatch struct {
	Materials []string `json:"materials"`
	AllFound  bool     `json:"all_found"`
	Unmatched []string `json:"unmatched"`
}

type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FindBestMatch returns the first catalog name whose key equals the query's key.
func (m *Matcher) FindBestMatch(query string) (string, bool) {
	key := util.NormalizeMaterialName(query)
	if key == "" {
		return "", false
	}
	names := m.index.ByKey[key]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

func (m *Matcher) ParseStructure(structure string) StructureMatch {
	if structure == "" {
		return StructureMatch{Materials: []string{}, AllFound: false, Unmatched: []string{}}
	}

	parts := strings.Split(structure, "/")
	res := StructureMatch{
		Materials: make([]string, 0, len(parts)),
		AllFound:  true,
		Unmatched: []string{},
	}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if name, ok := m.FindBestMatch(part); ok {
			res.Materials = append(res.Materials, name)
			continue
		}
		res.Materials = append(res.Materials, part)
		res.Unmatched = append(res.Unmatched, part)
		res.AllFound = false
	}
	return res
}

// Suggest ranks catalog names by similarity to query. It never changes what
// FindBestMatch returns.
func (m *Matcher) Suggest(query string, limit int) []Suggestion {
	key := util.NormalizeMaterialName(query)
	if key == "" || limit <= 0 {
		return nil
	}
	queryTokens := util.Tokenize(query)

	out := make([]Suggestion, 0, len(m.index.Names))
	for _, name := range m.index.Names {
		candidate := m.index.NormalizedByName[name]
		score := scoreName(key, candidate, queryTokens, m.index.NameTokens[name])
		if score <= 0 {
			continue
		}
		out = append(out, Suggestion{Name: name, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func scoreName(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}

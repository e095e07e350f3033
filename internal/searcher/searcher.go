package searcher

import (
	"sort"
	"strings"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// NormalizeTerms lowercases terms and drops blank ones
func NormalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, strings.ToLower(t))
	}
	return out
}

// Matches reports whether every normalized term occurs in the record's
// display name or path, ignoring case.
func Matches(r types.ProjectRecord, normalized []string) bool {
	if len(normalized) == 0 {
		return false
	}
	name := strings.ToLower(r.DisplayName)
	path := strings.ToLower(r.Path)
	for _, term := range normalized {
		if !strings.Contains(name, term) && !strings.Contains(path, term) {
			return false
		}
	}
	return true
}

// Match returns the IDs of all projects in snapshot matching terms, most
// recently opened first. Terms that are empty or blank are ignored; without
// any remaining term nothing matches.
func Match(snapshot *types.ProjectIndex, terms []string) []string {
	return match(snapshot, terms, nil)
}

// MatchSubset is Match restricted to the IDs in previous. IDs of previous that
// are no longer in snapshot are dropped.
func MatchSubset(snapshot *types.ProjectIndex, previous, terms []string) []string {
	allowed := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		allowed[id] = struct{}{}
	}
	return match(snapshot, terms, allowed)
}

func match(snapshot *types.ProjectIndex, terms []string, allowed map[string]struct{}) []string {
	normalized := NormalizeTerms(terms)
	if len(normalized) == 0 || snapshot.Len() == 0 {
		return []string{}
	}

	var hits []types.ProjectRecord
	for _, r := range snapshot.Records() {
		if allowed != nil {
			if _, ok := allowed[r.ID]; !ok {
				continue
			}
		}
		if Matches(r, normalized) {
			hits = append(hits, r)
		}
	}

	sortByRecency(hits)

	ids := make([]string, len(hits))
	for i, r := range hits {
		ids[i] = r.ID
	}
	return ids
}

// sortByRecency orders by LastOpened descending, then name, then ID
func sortByRecency(records []types.ProjectRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.LastOpened.Equal(b.LastOpened) {
			return a.LastOpened.After(b.LastOpened)
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
}

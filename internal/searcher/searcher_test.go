package searcher

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

const variant = "jetbrains-idea.desktop"

var (
	t1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
)

func exampleSnapshot() *types.ProjectIndex {
	return types.NewProjectIndex(1, t2, []types.ProjectRecord{
		types.NewProjectRecord(variant, "Bar Lib", "/home/u/bar", t1),
		types.NewProjectRecord(variant, "Foo Service", "/home/u/foo", t2),
	})
}

var (
	fooID = types.ProjectID(variant, "/home/u/foo")
	barID = types.ProjectID(variant, "/home/u/bar")
)

func TestMatch_Example(t *testing.T) {
	snap := exampleSnapshot()

	tests := []struct {
		name  string
		terms []string
		want  []string
	}{
		{"single hit", []string{"foo"}, []string{fooID}},
		{"recency order", []string{"o"}, []string{fooID, barID}},
		{"no hit", []string{"zzz"}, []string{}},
		{"case insensitive", []string{"FOO", "sErViCe"}, []string{fooID}},
		{"terms are anded", []string{"foo", "lib"}, []string{}},
		{"path matches", []string{"home/u/bar"}, []string{barID}},
		{"no terms", nil, []string{}},
		{"blank terms only", []string{"", "  "}, []string{}},
		{"blank terms ignored", []string{"", "bar"}, []string{barID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(snap, tt.terms))
		})
	}
}

func TestMatch_TieBreaks(t *testing.T) {
	snap := types.NewProjectIndex(1, t1, []types.ProjectRecord{
		types.NewProjectRecord(variant, "beta", "/p/2", t1),
		types.NewProjectRecord(variant, "alpha", "/p/3", t1),
		types.NewProjectRecord(variant, "alpha", "/p/1", t1),
	})

	assert.Equal(t, []string{
		types.ProjectID(variant, "/p/1"),
		types.ProjectID(variant, "/p/3"),
		types.ProjectID(variant, "/p/2"),
	}, Match(snap, []string{"/p/"}))
}

func TestMatch_EmptySnapshot(t *testing.T) {
	assert.Equal(t, []string{}, Match(types.EmptyIndex(), []string{"foo"}))
	assert.Equal(t, []string{}, Match(nil, []string{"foo"}))
}

func TestMatchSubset(t *testing.T) {
	snap := exampleSnapshot()

	assert.Equal(t, []string{fooID}, MatchSubset(snap, []string{fooID}, []string{"o"}))
	assert.Equal(t, []string{}, MatchSubset(snap, []string{barID}, []string{"foo"}))
	assert.Equal(t, []string{}, MatchSubset(snap, nil, []string{"o"}))
	assert.Equal(t, []string{fooID}, MatchSubset(snap, []string{"gone", fooID}, []string{"foo"}),
		"unknown ids are dropped")

	// Order follows a fresh match, not the order of previous
	assert.Equal(t, []string{fooID, barID}, MatchSubset(snap, []string{barID, fooID}, []string{"o"}))
}

// randomSnapshot builds a snapshot of n projects with random names
func randomSnapshot(rng *rand.Rand, n int) *types.ProjectIndex {
	words := []string{"api", "core", "gnome", "search", "web", "cli", "lib", "Foo", "BAR"}
	records := make([]types.ProjectRecord, 0, n)
	for i := 0; i < n; i++ {
		name := words[rng.Intn(len(words))] + "-" + words[rng.Intn(len(words))]
		path := fmt.Sprintf("/home/u/%s/%d", words[rng.Intn(len(words))], i)
		opened := t1.Add(time.Duration(rng.Intn(5)) * time.Minute)
		records = append(records, types.NewProjectRecord(variant, name, path, opened))
	}
	return types.NewProjectIndex(1, t1, records)
}

func TestMatch_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	queries := [][]string{{"a"}, {"gnome"}, {"e", "c"}, {"foo"}, {"bar", "1"}, {"API"}, {"/home/u/web"}}

	for round := 0; round < 20; round++ {
		snap := randomSnapshot(rng, 50)
		for _, terms := range queries {
			got := Match(snap, terms)

			// Every result is in the snapshot and contains every term
			for _, id := range got {
				r, ok := snap.Get(id)
				require.True(t, ok)
				for _, term := range terms {
					term = strings.ToLower(term)
					assert.True(t,
						strings.Contains(strings.ToLower(r.DisplayName), term) ||
							strings.Contains(strings.ToLower(r.Path), term))
				}
			}

			// Idempotence
			assert.Equal(t, got, Match(snap, terms))

			// Subset law: narrowing equals a fresh match intersected with previous
			previous := Match(snap, terms[:1])
			narrowed := append(append([]string{}, terms...), "-")
			fresh := Match(snap, narrowed)
			inPrevious := make(map[string]bool, len(previous))
			for _, id := range previous {
				inPrevious[id] = true
			}
			want := []string{}
			for _, id := range fresh {
				if inPrevious[id] {
					want = append(want, id)
				}
			}
			assert.Equal(t, want, MatchSubset(snap, previous, narrowed))
		}
	}
}

func TestNormalizeTerms(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, NormalizeTerms([]string{" Foo ", "", "BAR", "\t"}))
	assert.Equal(t, []string{}, NormalizeTerms(nil))
}

package lens

import "github.com/sahilm/fuzzy"

// PaletteEntry is one searchable row of the command palette: a page, a
// named lens or an action.
type PaletteEntry struct {
	Title string
	Kind  string
}

// Ranked pairs a palette entry with the rune positions the query
// matched, for highlight rendering.
type Ranked struct {
	PaletteEntry
	MatchedIndexes []int
}

// paletteSource adapts entries for fuzzy matching on titles.
type paletteSource []PaletteEntry

func (s paletteSource) Len() int            { return len(s) }
func (s paletteSource) String(i int) string { return s[i].Title }

// RankPalette orders entries by fuzzy relevance to the query,
// dropping entries that do not match at all. An empty query returns
// every entry in its given order.
func RankPalette(query string, entries []PaletteEntry) []Ranked {
	if query == "" {
		out := make([]Ranked, len(entries))
		for i, e := range entries {
			out[i] = Ranked{PaletteEntry: e}
		}
		return out
	}

	matches := fuzzy.FindFrom(query, paletteSource(entries))
	out := make([]Ranked, 0, len(matches))
	for _, m := range matches {
		out = append(out, Ranked{
			PaletteEntry:   entries[m.Index],
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return out
}

package lens

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prismdeck/internal/blocks"
)

func TestMatchBasics(t *testing.T) {
	e := NewEngine()
	fields := map[string]any{"done": false, "streak": 4}

	pass, err := e.Match("!done && streak > 3", fields)
	require.NoError(t, err)
	assert.True(t, pass)

	pass, err = e.Match("done", fields)
	require.NoError(t, err)
	assert.False(t, pass)
}

func TestMatchEmptyFilterPassesEverything(t *testing.T) {
	e := NewEngine()

	pass, err := e.Match("", nil)
	require.NoError(t, err)
	assert.True(t, pass)
}

func TestMatchNonBooleanResultIsNoMatch(t *testing.T) {
	e := NewEngine()

	pass, err := e.Match("streak", map[string]any{"streak": 7})
	require.NoError(t, err)
	assert.False(t, pass)
}

func TestMatchCompileError(t *testing.T) {
	e := NewEngine()

	_, err := e.Match("((", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile lens")
}

func TestCheckCatchesSyntaxErrors(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.Check(""))
	assert.NoError(t, e.Check("!done && streak > 3"))
	assert.NoError(t, e.Check("undefined_var == 1"), "undefined variables are allowed")
	assert.Error(t, e.Check("1 +"))
}

func TestProgramsCompileOnce(t *testing.T) {
	e := NewEngine()
	fields := map[string]any{"size": int64(10)}

	_, err := e.Match("size > 5", fields)
	require.NoError(t, err)
	_, err = e.Match("size > 5", fields)
	require.NoError(t, err)

	e.mu.RLock()
	defer e.mu.RUnlock()
	assert.Len(t, e.cache, 1)
}

func TestApplyFiltersBlockItems(t *testing.T) {
	e := NewEngine()

	entries := blocks.SampleFiles().Entries
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry.Fields())
	}

	kept, err := e.Apply("!dir && size > 10000", items)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "roadmap.md", kept[0]["name"])
	assert.Equal(t, "run-0142.prism.json", kept[1]["name"])
}

func TestApplyEmptyFilterKeepsAll(t *testing.T) {
	e := NewEngine()
	items := []map[string]any{{"a": 1}, {"a": 2}}

	kept, err := e.Apply("", items)
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestApplyCompileErrorAborts(t *testing.T) {
	e := NewEngine()

	_, err := e.Apply("((", []map[string]any{{"a": 1}})
	assert.Error(t, err)
}

func TestConcurrentMatch(t *testing.T) {
	e := NewEngine()
	fields := map[string]any{"streak": 5}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := e.Match("streak >= 3", fields); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestRankPalette(t *testing.T) {
	entries := []PaletteEntry{
		{Title: "Calendar", Kind: "page"},
		{Title: "Habits", Kind: "page"},
		{Title: "GitHub sync", Kind: "action"},
	}

	ranked := RankPalette("hb", entries)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "Habits", ranked[0].Title)
	assert.NotEmpty(t, ranked[0].MatchedIndexes)
	for _, r := range ranked {
		assert.NotEqual(t, "Calendar", r.Title, "non-matching entries are dropped")
	}
}

func TestRankPaletteEmptyQueryKeepsOrder(t *testing.T) {
	entries := []PaletteEntry{
		{Title: "Observatory", Kind: "page"},
		{Title: "Deck", Kind: "page"},
	}

	ranked := RankPalette("", entries)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Observatory", ranked[0].Title)
	assert.Equal(t, "Deck", ranked[1].Title)
	assert.Empty(t, ranked[0].MatchedIndexes)
}

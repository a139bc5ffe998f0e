package blocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsOrder(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 7)
	assert.Equal(t, KindHabits, kinds[0])
	assert.Equal(t, KindConversation, kinds[6])
}

func TestCalendarGroupsByDay(t *testing.T) {
	day1 := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	c := NewCalendar(nil)
	c.SetPayload(CalendarPayload{
		Month: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		Events: []CalendarEvent{
			{ID: "b", Title: "Later", At: day1.Add(9 * time.Hour)},
			{ID: "a", Title: "Earlier", At: day1.Add(8 * time.Hour)},
			{ID: "c", Title: "Tomorrow", At: day2.Add(10 * time.Hour)},
		},
	})

	d := c.Derived()
	require.Equal(t, []string{"2026-08-24", "2026-08-25"}, d.Days)
	require.Len(t, d.ByDay["2026-08-24"], 2)
	assert.Equal(t, "a", d.ByDay["2026-08-24"][0].ID, "events within a day sort by start time")
	assert.Equal(t, "b", d.ByDay["2026-08-24"][1].ID)
	assert.Len(t, d.ByID, 3)
}

func TestCalendarTieBreaksByID(t *testing.T) {
	at := time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)

	c := NewCalendar(nil)
	c.SetPayload(CalendarPayload{Events: []CalendarEvent{
		{ID: "z", At: at},
		{ID: "a", At: at},
	}})

	d := c.Derived()
	assert.Equal(t, "a", d.ByDay["2026-08-24"][0].ID)
}

func TestContactsGroupByRole(t *testing.T) {
	c := NewContacts(nil)
	c.SetPayload(SampleContacts())

	d := c.Derived()
	assert.Equal(t, []string{"design", "engineering", "product"}, d.Roles)
	require.Len(t, d.ByRole["engineering"], 2)
	assert.Equal(t, "Riley Moreno", d.ByRole["engineering"][0].Name, "contacts within a role sort by name")
	assert.Equal(t, "Sam Okafor", d.ByRole["engineering"][1].Name)
}

func TestFilesDerived(t *testing.T) {
	f := NewFiles(nil)
	f.SetPayload(SampleFiles())

	d := f.Derived()
	assert.Equal(t, 2, d.DirCount)
	assert.Equal(t, 3, d.FileCount)
	assert.Equal(t, int64(4821+18211+264410), d.TotalSize)

	var names []string
	for _, e := range d.Sorted {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"assets", "docs", "notes.md", "roadmap.md", "run-0142.prism.json"}, names,
		"directories first, then files, both by name")
}

func TestFilesOpenCarriesEntryInfo(t *testing.T) {
	var payload map[string]any
	f := NewFiles(DispatcherFunc(func(_, _ string, p map[string]any) { payload = p }))
	f.SetPayload(SampleFiles())

	f.Open("f-docs")
	require.NotNil(t, payload)
	assert.Equal(t, "docs", payload["name"])
	assert.Equal(t, true, payload["dir"])
}

func TestProjectsOverallProgress(t *testing.T) {
	p := NewProjects(nil)
	p.SetPayload(ProjectsPayload{Projects: []Project{
		{ID: "a", Name: "Alpha", Status: "active", TasksDone: 3, TasksTotal: 4},
		{ID: "b", Name: "Beta", Status: "paused", TasksDone: 1, TasksTotal: 6},
	}})

	d := p.Derived()
	assert.InDelta(t, 0.4, d.Overall, 1e-9)
	assert.Equal(t, []string{"active", "paused"}, d.Statuses)

	p.SetPayload(ProjectsPayload{})
	assert.Zero(t, p.Derived().Overall, "no tasks means zero progress, not NaN")
}

func TestGitStatusDerived(t *testing.T) {
	g := NewGitStatus(nil)
	g.SetPayload(SampleGitStatus())

	d := g.Derived()
	assert.False(t, d.Clean)
	assert.Equal(t, 3, d.ChangeCount)
	assert.Equal(t, "8f4c2a9", d.ShortHash["8f4c2a91d0be7735c6412f88a01f5f1be2d9c044"])

	g.SetPayload(GitStatusPayload{Branch: "main", Commits: []Commit{{Hash: "abc12"}}})
	d = g.Derived()
	assert.True(t, d.Clean)
	assert.Equal(t, "abc12", d.ShortHash["abc12"], "short hashes pass through unchanged")
}

func TestGitStatusGestures(t *testing.T) {
	var gestures []string
	g := NewGitStatus(DispatcherFunc(func(actionID, subjectID string, _ map[string]any) {
		gestures = append(gestures, actionID+":"+subjectID)
	}))
	g.SetPayload(SampleGitStatus())

	g.Stage("internal/blocks/sample.go")
	g.Unstage("internal/playback/sequencer.go")
	assert.Equal(t, []string{
		"git.stage:internal/blocks/sample.go",
		"git.unstage:internal/playback/sequencer.go",
	}, gestures)
}

func TestConversationDerived(t *testing.T) {
	c := NewConversation(nil)
	c.SetPayload(SampleConversation())

	d := c.Derived()
	require.Len(t, d.ByID, 3)

	sum := 0
	for id, n := range d.Tokens {
		assert.Greater(t, n, 0, "turn %s has content", id)
		sum += n
	}
	assert.Equal(t, sum, d.TotalTokens)
	assert.Equal(t, sampleBase.Add(-2*time.Minute), d.LastAt)
}

func TestSamplePayloadsDerive(t *testing.T) {
	h := NewHabits(nil)
	h.SetPayload(SampleHabits())
	_, ok := h.Derived().NextDue("habit-review", sampleBase)
	assert.True(t, ok, "sample schedules parse")

	cal := NewCalendar(nil)
	cal.SetPayload(SampleCalendar())
	assert.NotEmpty(t, cal.Derived().Days)

	p := NewProjects(nil)
	p.SetPayload(SampleProjects())
	assert.Greater(t, p.Derived().Overall, 0.0)
}

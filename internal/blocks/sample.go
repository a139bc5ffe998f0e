package blocks

import "time"

// sampleBase anchors every sample payload so offline rendering is
// deterministic.
var sampleBase = time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)

// SampleHabits returns the bundled habit tracker payload used when no
// backend is configured.
func SampleHabits() HabitsPayload {
	return HabitsPayload{Habits: []Habit{
		{ID: "habit-review", Title: "Morning inbox review", Done: true, Streak: 12, Schedule: "0 9 * * 1-5"},
		{ID: "habit-commit", Title: "Ship one commit", Done: true, Streak: 5, Schedule: "0 17 * * *"},
		{ID: "habit-read", Title: "Read 20 pages", Done: false, Streak: 3, Schedule: "30 21 * * *"},
		{ID: "habit-stretch", Title: "Stretch break", Done: false, Streak: 0, Schedule: "0 */2 * * *"},
	}}
}

// SampleCalendar returns the bundled calendar payload.
func SampleCalendar() CalendarPayload {
	return CalendarPayload{
		Month: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		Events: []CalendarEvent{
			{ID: "ev-standup", Title: "Standup", At: sampleBase.Add(30 * time.Minute), Duration: 15 * time.Minute},
			{ID: "ev-review", Title: "Design review", At: sampleBase.Add(5 * time.Hour), Duration: time.Hour},
			{ID: "ev-oneone", Title: "1:1 with Riley", At: sampleBase.Add(26 * time.Hour), Duration: 30 * time.Minute},
			{ID: "ev-demo", Title: "Sprint demo", At: sampleBase.Add(50 * time.Hour), Duration: 45 * time.Minute},
		},
	}
}

// SampleContacts returns the bundled contacts payload.
func SampleContacts() ContactsPayload {
	return ContactsPayload{Contacts: []Contact{
		{ID: "ct-riley", Name: "Riley Moreno", Role: "engineering", Email: "riley@example.dev", LastTouch: sampleBase.Add(-48 * time.Hour)},
		{ID: "ct-sam", Name: "Sam Okafor", Role: "engineering", Email: "sam@example.dev", LastTouch: sampleBase.Add(-3 * time.Hour)},
		{ID: "ct-dana", Name: "Dana Liu", Role: "design", Email: "dana@example.dev", LastTouch: sampleBase.Add(-170 * time.Hour)},
		{ID: "ct-priya", Name: "Priya Natarajan", Role: "product", Email: "priya@example.dev", LastTouch: sampleBase.Add(-20 * time.Hour)},
	}}
}

// SampleFiles returns the bundled file list payload.
func SampleFiles() FilesPayload {
	return FilesPayload{Entries: []FileEntry{
		{ID: "f-docs", Name: "docs", Dir: true, ModTime: sampleBase.Add(-90 * time.Hour)},
		{ID: "f-notes", Name: "notes.md", Size: 4821, ModTime: sampleBase.Add(-2 * time.Hour)},
		{ID: "f-spec", Name: "roadmap.md", Size: 18211, ModTime: sampleBase.Add(-26 * time.Hour)},
		{ID: "f-assets", Name: "assets", Dir: true, ModTime: sampleBase.Add(-300 * time.Hour)},
		{ID: "f-recording", Name: "run-0142.prism.json", Size: 264410, ModTime: sampleBase.Add(-40 * time.Minute)},
	}}
}

// SampleProjects returns the bundled project cards payload.
func SampleProjects() ProjectsPayload {
	return ProjectsPayload{Projects: []Project{
		{ID: "pj-deck", Name: "Observatory deck", Status: "active", Progress: 0.64, TasksDone: 16, TasksTotal: 25},
		{ID: "pj-bridge", Name: "Backend bridge", Status: "active", Progress: 0.40, TasksDone: 4, TasksTotal: 10},
		{ID: "pj-theme", Name: "Theme pass", Status: "paused", Progress: 0.10, TasksDone: 1, TasksTotal: 10},
		{ID: "pj-docs", Name: "User guide", Status: "done", Progress: 1.0, TasksDone: 8, TasksTotal: 8},
	}}
}

// SampleGitStatus returns the bundled git status payload.
func SampleGitStatus() GitStatusPayload {
	return GitStatusPayload{
		Branch:    "feature/observatory",
		Ahead:     2,
		Unstaged:  []string{"internal/blocks/sample.go"},
		Untracked: []string{"notes/scratch.md"},
		Staged:    []string{"internal/playback/sequencer.go"},
		Commits: []Commit{
			{Hash: "8f4c2a91d0be7735c6412f88a01f5f1be2d9c044", Subject: "Add staggered reveal schedule", Author: "Riley Moreno", At: sampleBase.Add(-20 * time.Hour)},
			{Hash: "13febc02aa9e5d4c8b07e6a2519dd0143f2b9a77", Subject: "Wire recordings watcher", Author: "Sam Okafor", At: sampleBase.Add(-44 * time.Hour)},
			{Hash: "a90d11e4c5b2f8d6073c4e19fb2261a8cd30e512", Subject: "First convergence chart", Author: "Riley Moreno", At: sampleBase.Add(-70 * time.Hour)},
		},
	}
}

// SampleConversation returns the bundled conversation payload.
func SampleConversation() ConversationPayload {
	return ConversationPayload{Turns: []Turn{
		{ID: "t-1", Role: "user", Content: "Refine the landing page copy until the tone gate passes.", At: sampleBase.Add(-12 * time.Minute)},
		{ID: "t-2", Role: "assistant", Content: "Starting a refinement run with three candidates per round. I will stream each iteration as it scores.", At: sampleBase.Add(-11 * time.Minute)},
		{ID: "t-3", Role: "assistant", Content: "Round 4 converged at 9.2 with the tone and length gates both green. The winning variant leads with the latency claim.", At: sampleBase.Add(-2 * time.Minute)},
	}}
}

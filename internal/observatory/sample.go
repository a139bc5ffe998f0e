package observatory

import (
	"time"

	"prismdeck/internal/playback"
)

// SampleRecording returns the bundled run rendered when the recordings
// directory is empty.
func SampleRecording() *Recording {
	started := time.Date(2026, time.August, 24, 8, 15, 0, 0, time.UTC)
	return &Recording{
		Run: Run{
			ID:         "run-sample",
			Goal:       "Refine the landing page copy",
			StartedAt:  started,
			Scale:      10,
			StopReason: "threshold",
		},
		Iterations: []playback.Iteration{
			{
				Index: 0,
				Score: 1.0,
				Gates: map[string]bool{"tone": false, "length": false},
				Candidates: []playback.Candidate{
					{ID: "c0-a", Label: "Feature list lead", Score: 1.0},
					{ID: "c0-b", Label: "Question lead", Score: 0.8},
					{ID: "c0-c", Label: "Quote lead", Score: 0.6},
				},
				Improvement: "baseline draft",
				Elapsed:     1800 * time.Millisecond,
				At:          started.Add(2 * time.Second),
			},
			{
				Index: 1,
				Score: 6.0,
				Gates: map[string]bool{"tone": true, "length": false},
				Candidates: []playback.Candidate{
					{ID: "c1-a", Label: "Latency claim lead", Score: 6.0},
					{ID: "c1-b", Label: "Benchmark lead", Score: 5.1},
					{ID: "c1-c", Label: "Story lead", Score: 4.4},
				},
				Improvement: "tightened the opening sentence",
				Elapsed:     2100 * time.Millisecond,
				At:          started.Add(5 * time.Second),
			},
			{
				Index: 2,
				Score: 9.5,
				Gates: map[string]bool{"tone": true, "length": true},
				Candidates: []playback.Candidate{
					{ID: "c2-a", Label: "Latency claim lead", Score: 9.5, Winner: true},
					{ID: "c2-b", Label: "Hybrid lead", Score: 8.9},
					{ID: "c2-c", Label: "Short lead", Score: 8.2},
				},
				Improvement: "cut the second paragraph",
				Elapsed:     1950 * time.Millisecond,
				At:          started.Add(8 * time.Second),
			},
		},
	}
}

// SampleGraph returns the bundled knowledge graph.
func SampleGraph() ([]Node, []Edge) {
	nodes := []Node{
		{ID: "goal", Label: "Goal"},
		{ID: "research", Label: "Research"},
		{ID: "draft", Label: "Draft"},
		{ID: "critique", Label: "Critique"},
		{ID: "final", Label: "Final"},
	}
	edges := []Edge{
		{From: "goal", To: "research"},
		{From: "goal", To: "draft"},
		{From: "research", To: "draft"},
		{From: "draft", To: "critique"},
		{From: "critique", To: "draft"},
		{From: "critique", To: "final"},
	}
	return nodes, edges
}

// SampleDAG returns the bundled execution DAG.
func SampleDAG() ([]Node, []Edge) {
	nodes := []Node{
		{ID: "fetch", Label: "Fetch context"},
		{ID: "parse", Label: "Parse goal"},
		{ID: "candidates", Label: "Generate candidates"},
		{ID: "score", Label: "Score"},
		{ID: "rank", Label: "Rank"},
		{ID: "report", Label: "Report"},
	}
	edges := []Edge{
		{From: "fetch", To: "parse"},
		{From: "parse", To: "candidates"},
		{From: "candidates", To: "score"},
		{From: "score", To: "rank"},
		{From: "rank", To: "report"},
	}
	return nodes, edges
}

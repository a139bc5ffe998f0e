package blocks

import "time"

// Commit is one recent commit row.
type Commit struct {
	Hash    string    `json:"hash"`
	Subject string    `json:"subject"`
	Author  string    `json:"author"`
	At      time.Time `json:"at"`
}

// GitStatusPayload is the wire shape behind the git status block. The
// backend owns all git plumbing; this is a read-only snapshot.
type GitStatusPayload struct {
	Branch    string   `json:"branch"`
	Ahead     int      `json:"ahead"`
	Behind    int      `json:"behind"`
	Staged    []string `json:"staged"`
	Unstaged  []string `json:"unstaged"`
	Untracked []string `json:"untracked"`
	Commits   []Commit `json:"commits"`
}

// GitStatusDerived summarizes the working tree snapshot.
type GitStatusDerived struct {
	Clean       bool
	ChangeCount int
	// ShortHash maps full commit hashes to their 7 character display
	// form.
	ShortHash map[string]string
}

// GitStatus is the git status panel block.
type GitStatus struct {
	actions
	payload GitStatusPayload
	derived *GitStatusDerived
}

// NewGitStatus creates the block with fallback as its action sink.
func NewGitStatus(fallback ActionDispatcher) *GitStatus {
	return &GitStatus{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (g *GitStatus) SetPayload(p GitStatusPayload) {
	g.payload = p
	g.derived = nil
}

// Payload returns the current payload.
func (g *GitStatus) Payload() GitStatusPayload { return g.payload }

// Derived returns the working tree summary, computed once per payload.
func (g *GitStatus) Derived() *GitStatusDerived {
	if g.derived == nil {
		g.derived = deriveGitStatus(g.payload)
	}
	return g.derived
}

func deriveGitStatus(p GitStatusPayload) *GitStatusDerived {
	d := &GitStatusDerived{
		ChangeCount: len(p.Staged) + len(p.Unstaged) + len(p.Untracked),
		ShortHash:   make(map[string]string, len(p.Commits)),
	}
	d.Clean = d.ChangeCount == 0
	for _, c := range p.Commits {
		short := c.Hash
		if len(short) > 7 {
			short = short[:7]
		}
		d.ShortHash[c.Hash] = short
	}
	return d
}

// Stage reports a stage gesture for a working tree path.
func (g *GitStatus) Stage(path string) {
	g.dispatch("git.stage", path, nil)
}

// Unstage reports an unstage gesture for an index path.
func (g *GitStatus) Unstage(path string) {
	g.dispatch("git.unstage", path, nil)
}

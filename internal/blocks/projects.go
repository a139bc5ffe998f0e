package blocks

import "sort"

// Project is one project card.
type Project struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	TasksDone  int     `json:"tasks_done"`
	TasksTotal int     `json:"tasks_total"`
}

// Fields exposes the project to lens filters.
func (p Project) Fields() map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"status":      p.Status,
		"progress":    p.Progress,
		"tasks_done":  p.TasksDone,
		"tasks_total": p.TasksTotal,
	}
}

// ProjectsPayload is the wire shape behind the project cards block.
type ProjectsPayload struct {
	Projects []Project `json:"projects"`
}

// ProjectsDerived groups projects by status and aggregates task
// progress across all cards.
type ProjectsDerived struct {
	ByID map[string]Project
	// ByStatus maps a status to its projects in name order.
	ByStatus map[string][]Project
	// Statuses holds the keys of ByStatus in ascending order.
	Statuses []string
	// Overall is the task-weighted completion fraction in [0,1].
	Overall float64
}

// Projects is the project cards block.
type Projects struct {
	actions
	payload ProjectsPayload
	derived *ProjectsDerived
}

// NewProjects creates the block with fallback as its action sink.
func NewProjects(fallback ActionDispatcher) *Projects {
	return &Projects{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (pr *Projects) SetPayload(p ProjectsPayload) {
	pr.payload = p
	pr.derived = nil
}

// Payload returns the current payload.
func (pr *Projects) Payload() ProjectsPayload { return pr.payload }

// Derived returns grouping and aggregate progress, computed once per
// payload.
func (pr *Projects) Derived() *ProjectsDerived {
	if pr.derived == nil {
		pr.derived = deriveProjects(pr.payload)
	}
	return pr.derived
}

func deriveProjects(p ProjectsPayload) *ProjectsDerived {
	d := &ProjectsDerived{
		ByID:     make(map[string]Project, len(p.Projects)),
		ByStatus: make(map[string][]Project),
	}
	var done, total int
	for _, proj := range p.Projects {
		d.ByID[proj.ID] = proj
		d.ByStatus[proj.Status] = append(d.ByStatus[proj.Status], proj)
		done += proj.TasksDone
		total += proj.TasksTotal
	}
	for status, projs := range d.ByStatus {
		sort.Slice(projs, func(i, j int) bool { return projs[i].Name < projs[j].Name })
		d.Statuses = append(d.Statuses, status)
	}
	sort.Strings(d.Statuses)
	if total > 0 {
		d.Overall = float64(done) / float64(total)
	}
	return d
}

// Open reports a project-open gesture. Unknown ids are ignored.
func (pr *Projects) Open(id string) {
	if _, ok := pr.Derived().ByID[id]; !ok {
		return
	}
	pr.dispatch("project.open", id, nil)
}

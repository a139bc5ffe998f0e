package blocks

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Habit is one tracked habit row.
type Habit struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Done     bool   `json:"done"`
	Streak   int    `json:"streak"`
	Schedule string `json:"schedule,omitempty"`
}

// Fields exposes the habit to lens filters.
func (h Habit) Fields() map[string]any {
	return map[string]any{
		"id":     h.ID,
		"title":  h.Title,
		"done":   h.Done,
		"streak": h.Streak,
	}
}

// HabitsPayload is the wire shape behind the habit tracker block.
type HabitsPayload struct {
	Habits []Habit `json:"habits"`
}

// HabitsDerived is the lookup and progress state computed from a habits
// payload.
type HabitsDerived struct {
	ByID      map[string]Habit
	DoneCount int
	// Completion is the done fraction in [0,1].
	Completion float64

	schedules map[string]cron.Schedule
}

// NextDue returns the next activation of a habit's schedule strictly
// after the reference time. ok is false for unknown ids, habits without
// a schedule and schedules that failed to parse.
func (d *HabitsDerived) NextDue(id string, after time.Time) (time.Time, bool) {
	sched, ok := d.schedules[id]
	if !ok {
		return time.Time{}, false
	}
	return sched.Next(after), true
}

// scheduleParser accepts the standard five field cron format.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Habits is the habit tracker block.
type Habits struct {
	actions
	payload HabitsPayload
	derived *HabitsDerived
}

// NewHabits creates the block with fallback as its action sink.
func NewHabits(fallback ActionDispatcher) *Habits {
	return &Habits{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (h *Habits) SetPayload(p HabitsPayload) {
	h.payload = p
	h.derived = nil
}

// Payload returns the current payload.
func (h *Habits) Payload() HabitsPayload { return h.payload }

// Derived returns lookup maps, completion progress and parsed
// schedules, computed once per payload.
func (h *Habits) Derived() *HabitsDerived {
	if h.derived == nil {
		h.derived = deriveHabits(h.payload)
	}
	return h.derived
}

func deriveHabits(p HabitsPayload) *HabitsDerived {
	d := &HabitsDerived{
		ByID:      make(map[string]Habit, len(p.Habits)),
		schedules: make(map[string]cron.Schedule),
	}
	for _, hab := range p.Habits {
		d.ByID[hab.ID] = hab
		if hab.Done {
			d.DoneCount++
		}
		if hab.Schedule == "" {
			continue
		}
		sched, err := scheduleParser.Parse(hab.Schedule)
		if err != nil {
			// A bad schedule renders without a due time.
			continue
		}
		d.schedules[hab.ID] = sched
	}
	if len(p.Habits) > 0 {
		d.Completion = float64(d.DoneCount) / float64(len(p.Habits))
	}
	return d
}

// Toggle flips a habit's completion and reports the gesture. Unknown
// ids are ignored.
func (h *Habits) Toggle(id string) {
	hab, ok := h.Derived().ByID[id]
	if !ok {
		return
	}
	h.dispatch("habit.toggle", id, map[string]any{"done": !hab.Done})
}

package blocks

import (
	"sort"
	"time"

	"prismdeck/internal/format"
)

// CalendarEvent is one scheduled entry.
type CalendarEvent struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
}

// Fields exposes the event to lens filters.
func (e CalendarEvent) Fields() map[string]any {
	return map[string]any{
		"id":       e.ID,
		"title":    e.Title,
		"at":       e.At,
		"duration": e.Duration,
	}
}

// CalendarPayload is the wire shape behind the calendar block. Month
// anchors the visible grid; events may fall outside it.
type CalendarPayload struct {
	Month  time.Time       `json:"month"`
	Events []CalendarEvent `json:"events"`
}

// CalendarDerived groups events for rendering.
type CalendarDerived struct {
	ByID map[string]CalendarEvent
	// ByDay maps a day key (2006-01-02) to that day's events in start
	// order.
	ByDay map[string][]CalendarEvent
	// Days holds the keys of ByDay in ascending order.
	Days []string
}

// Calendar is the month view block.
type Calendar struct {
	actions
	payload CalendarPayload
	derived *CalendarDerived
}

// NewCalendar creates the block with fallback as its action sink.
func NewCalendar(fallback ActionDispatcher) *Calendar {
	return &Calendar{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (c *Calendar) SetPayload(p CalendarPayload) {
	c.payload = p
	c.derived = nil
}

// Payload returns the current payload.
func (c *Calendar) Payload() CalendarPayload { return c.payload }

// Derived returns the day grouping, computed once per payload.
func (c *Calendar) Derived() *CalendarDerived {
	if c.derived == nil {
		c.derived = deriveCalendar(c.payload)
	}
	return c.derived
}

func deriveCalendar(p CalendarPayload) *CalendarDerived {
	d := &CalendarDerived{
		ByID:  make(map[string]CalendarEvent, len(p.Events)),
		ByDay: make(map[string][]CalendarEvent),
	}
	for _, ev := range p.Events {
		d.ByID[ev.ID] = ev
		key := format.DayKey(ev.At)
		d.ByDay[key] = append(d.ByDay[key], ev)
	}
	for key, evs := range d.ByDay {
		sort.Slice(evs, func(i, j int) bool {
			if evs[i].At.Equal(evs[j].At) {
				return evs[i].ID < evs[j].ID
			}
			return evs[i].At.Before(evs[j].At)
		})
		d.Days = append(d.Days, key)
	}
	sort.Strings(d.Days)
	return d
}

// Open reports an event-open gesture. Unknown ids are ignored.
func (c *Calendar) Open(id string) {
	if _, ok := c.Derived().ByID[id]; !ok {
		return
	}
	c.dispatch("event.open", id, nil)
}

// Package store holds the shared reactive state of the board: the
// current document, the active lens per block, workflow execution
// status, and observatory aggregates. State is mutated only through
// named operations and consumed through subscriptions; views never
// write to it directly. One store is created at application start and
// lives for the process; individual slices reset on navigation.
package store

import (
	"context"
	"sync"
	"sync/atomic"

	"prismdeck/internal/logging"
)

const defaultChannelBuffer = 64

// Slice identifies one independent region of shared state.
type Slice string

const (
	SliceDocument    Slice = "document"
	SliceLens        Slice = "lens"
	SliceWorkflow    Slice = "workflow"
	SliceObservatory Slice = "observatory"
)

// EventType distinguishes state changes from dispatched actions.
type EventType string

const (
	// EventStateChanged is published after every named mutation.
	EventStateChanged EventType = "state_changed"
	// EventActionDispatched is published when a block gesture lands in
	// the store because no explicit dispatcher was supplied.
	EventActionDispatched EventType = "action"
)

// DocumentState describes the document the board is focused on.
type DocumentState struct {
	Path  string
	Title string
	Dirty bool
}

// LensState is the active lens for one block kind.
type LensState struct {
	Block  string
	Name   string
	Filter string
}

// WorkflowState mirrors the backend's workflow execution status.
type WorkflowState struct {
	RunID      string
	Status     string
	Step       int
	TotalSteps int
}

// ObservatoryState aggregates the event stream of the active run.
type ObservatoryState struct {
	RunID      string
	Iterations int
	LastScore  float64
	BestScore  float64
	StopReason string
}

// State is the full shared state. Snapshots are copies; mutating one
// has no effect on the store.
type State struct {
	Document    DocumentState
	Lens        LensState
	Workflow    WorkflowState
	Observatory ObservatoryState
}

// Event is one change notification.
type Event struct {
	Type    EventType
	Slice   Slice
	Action  string
	Subject string
	Payload map[string]any
	State   State
}

// Filter selects which events a subscriber receives. Zero value
// matches everything.
type Filter struct {
	Slices []Slice
	Types  []EventType
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Store is the shared state container. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[uint64]*subscriber
	seq   atomic.Uint64
	log   *logging.Logger
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subs: make(map[uint64]*subscriber),
		log:  logging.Get(logging.CategoryStore),
	}
}

// Subscribe registers for events matching filter. Returns a
// receive-only channel and a cancel function that must be called when
// the subscriber goes away.
func (s *Store) Subscribe(ctx context.Context, filter Filter) (<-chan Event, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	id := s.seq.Add(1)
	ch := make(chan Event, defaultChannelBuffer)

	s.mu.Lock()
	s.subs[id] = &subscriber{ch: ch, filter: filter}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}

	return ch, cancel, nil
}

// State returns a snapshot of the full shared state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetDocument focuses the board on a document.
func (s *Store) SetDocument(path, title string) {
	s.mutate(SliceDocument, "document.set", func(st *State) {
		st.Document = DocumentState{Path: path, Title: title}
	})
}

// MarkDocumentDirty flags unsaved changes on the current document.
func (s *Store) MarkDocumentDirty(dirty bool) {
	s.mutate(SliceDocument, "document.dirty", func(st *State) {
		st.Document.Dirty = dirty
	})
}

// SetLens activates a lens for a block kind.
func (s *Store) SetLens(block, name, filter string) {
	s.mutate(SliceLens, "lens.set", func(st *State) {
		st.Lens = LensState{Block: block, Name: name, Filter: filter}
	})
}

// ClearLens removes the active lens.
func (s *Store) ClearLens() {
	s.mutate(SliceLens, "lens.clear", func(st *State) {
		st.Lens = LensState{}
	})
}

// SetWorkflowStatus records the backend's workflow progress.
func (s *Store) SetWorkflowStatus(runID, status string, step, total int) {
	s.mutate(SliceWorkflow, "workflow.status", func(st *State) {
		st.Workflow = WorkflowState{RunID: runID, Status: status, Step: step, TotalSteps: total}
	})
}

// RecordIteration folds one live iteration into the observatory
// aggregates. The first record for a new run resets the aggregates.
func (s *Store) RecordIteration(runID string, score float64) {
	s.mutate(SliceObservatory, "observatory.iteration", func(st *State) {
		if st.Observatory.RunID != runID {
			st.Observatory = ObservatoryState{RunID: runID}
		}
		st.Observatory.Iterations++
		st.Observatory.LastScore = score
		if score > st.Observatory.BestScore || st.Observatory.Iterations == 1 {
			st.Observatory.BestScore = score
		}
	})
}

// SetStopReason records why the active run ended.
func (s *Store) SetStopReason(reason string) {
	s.mutate(SliceObservatory, "observatory.stop", func(st *State) {
		st.Observatory.StopReason = reason
	})
}

// ResetSlice returns one slice to its zero value. Called on
// navigation; the store itself is never torn down.
func (s *Store) ResetSlice(slice Slice) {
	s.mutate(slice, "reset", func(st *State) {
		switch slice {
		case SliceDocument:
			st.Document = DocumentState{}
		case SliceLens:
			st.Lens = LensState{}
		case SliceWorkflow:
			st.Workflow = WorkflowState{}
		case SliceObservatory:
			st.Observatory = ObservatoryState{}
		}
	})
}

// Dispatch is the fallback action sink for blocks constructed without
// an explicit dispatcher. The gesture is published as an event for the
// board to forward, not handled here.
func (s *Store) Dispatch(actionID, subjectID string, payload map[string]any) {
	s.mu.Lock()
	ev := Event{
		Type:    EventActionDispatched,
		Action:  actionID,
		Subject: subjectID,
		Payload: payload,
		State:   s.state,
	}
	s.mu.Unlock()

	s.log.Debug("action dispatched via store: %s -> %s", actionID, subjectID)
	logging.Audit().ActionDispatch(actionID, subjectID)
	s.publish(ev)
}

// mutate applies fn under the write lock and publishes the change.
func (s *Store) mutate(slice Slice, action string, fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	ev := Event{
		Type:   EventStateChanged,
		Slice:  slice,
		Action: action,
		State:  s.state,
	}
	s.mu.Unlock()

	s.publish(ev)
}

// publish fans the event out to matching subscribers. Non-blocking: a
// full subscriber channel drops the event.
func (s *Store) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if !matchFilter(sub.filter, ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// backpressure: drop event for slow subscriber
		}
	}
}

// matchFilter reports whether the event passes the filter criteria.
func matchFilter(f Filter, e Event) bool {
	if len(f.Slices) > 0 {
		found := false
		for _, sl := range f.Slices {
			if sl == e.Slice {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

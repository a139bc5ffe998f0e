// Package blocks holds the typed payloads behind every deck block view
// and the display state derived from them. Payload structs are the wire
// contract with the prismd backend. Blocks are owned by the UI loop and
// are not safe for concurrent use.
package blocks

// Kind identifies a block view.
type Kind string

// Block kinds, in default deck order.
const (
	KindHabits       Kind = "habits"
	KindCalendar     Kind = "calendar"
	KindContacts     Kind = "contacts"
	KindFiles        Kind = "files"
	KindProjects     Kind = "projects"
	KindGitStatus    Kind = "git_status"
	KindConversation Kind = "conversation"
)

// Kinds returns every block kind in deck order.
func Kinds() []Kind {
	return []Kind{
		KindHabits,
		KindCalendar,
		KindContacts,
		KindFiles,
		KindProjects,
		KindGitStatus,
		KindConversation,
	}
}

// ActionDispatcher receives the user gestures a block reports. The
// shared store satisfies this; callers may substitute any other sink.
type ActionDispatcher interface {
	Dispatch(actionID, subjectID string, payload map[string]any)
}

// DispatcherFunc adapts a plain function to ActionDispatcher.
type DispatcherFunc func(actionID, subjectID string, payload map[string]any)

// Dispatch implements ActionDispatcher.
func (f DispatcherFunc) Dispatch(actionID, subjectID string, payload map[string]any) {
	f(actionID, subjectID, payload)
}

// actions routes gestures from a block to a dispatcher. Every block
// embeds one. An explicit override wins; otherwise gestures go to the
// fallback the block was constructed with. With neither, gestures are
// dropped.
type actions struct {
	override ActionDispatcher
	fallback ActionDispatcher
}

// SetDispatcher overrides where the block reports gestures. Pass nil to
// restore the fallback.
func (a *actions) SetDispatcher(d ActionDispatcher) { a.override = d }

func (a *actions) dispatch(actionID, subjectID string, payload map[string]any) {
	d := a.override
	if d == nil {
		d = a.fallback
	}
	if d == nil {
		return
	}
	d.Dispatch(actionID, subjectID, payload)
}

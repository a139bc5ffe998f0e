package blocks

import (
	"time"

	"prismdeck/internal/format"
)

// Turn is one message of a conversation.
type Turn struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Fields exposes the turn to lens filters.
func (t Turn) Fields() map[string]any {
	return map[string]any{
		"id":      t.ID,
		"role":    t.Role,
		"content": t.Content,
		"at":      t.At,
	}
}

// ConversationPayload is the wire shape behind the conversation block.
type ConversationPayload struct {
	Turns []Turn `json:"turns"`
}

// ConversationDerived carries per turn token counts and the time of
// the latest message.
type ConversationDerived struct {
	ByID        map[string]Turn
	Tokens      map[string]int
	TotalTokens int
	LastAt      time.Time
}

// turnTokens counts display tokens for conversation content.
var turnTokens = format.NewTokenCounter()

// Conversation is the conversation layout block.
type Conversation struct {
	actions
	payload ConversationPayload
	derived *ConversationDerived
}

// NewConversation creates the block with fallback as its action sink.
func NewConversation(fallback ActionDispatcher) *Conversation {
	return &Conversation{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (c *Conversation) SetPayload(p ConversationPayload) {
	c.payload = p
	c.derived = nil
}

// Payload returns the current payload.
func (c *Conversation) Payload() ConversationPayload { return c.payload }

// Derived returns token counts and recency, computed once per payload.
func (c *Conversation) Derived() *ConversationDerived {
	if c.derived == nil {
		c.derived = deriveConversation(c.payload)
	}
	return c.derived
}

func deriveConversation(p ConversationPayload) *ConversationDerived {
	d := &ConversationDerived{
		ByID:   make(map[string]Turn, len(p.Turns)),
		Tokens: make(map[string]int, len(p.Turns)),
	}
	for _, t := range p.Turns {
		d.ByID[t.ID] = t
		n := turnTokens.Count(t.Content)
		d.Tokens[t.ID] = n
		d.TotalTokens += n
		if t.At.After(d.LastAt) {
			d.LastAt = t.At
		}
	}
	return d
}

// Copy reports a copy gesture for one turn. Unknown ids are ignored.
func (c *Conversation) Copy(id string) {
	if _, ok := c.Derived().ByID[id]; !ok {
		return
	}
	c.dispatch("turn.copy", id, nil)
}

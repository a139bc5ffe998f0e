package blocks

import (
	"sort"
	"time"
)

// Contact is one contact card.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	LastTouch time.Time `json:"last_touch"`
}

// Fields exposes the contact to lens filters.
func (c Contact) Fields() map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"role":       c.Role,
		"email":      c.Email,
		"last_touch": c.LastTouch,
	}
}

// ContactsPayload is the wire shape behind the contacts block.
type ContactsPayload struct {
	Contacts []Contact `json:"contacts"`
}

// ContactsDerived groups contacts by role for rendering.
type ContactsDerived struct {
	ByID map[string]Contact
	// ByRole maps a role to its contacts in name order.
	ByRole map[string][]Contact
	// Roles holds the keys of ByRole in ascending order.
	Roles []string
}

// Contacts is the contact card block.
type Contacts struct {
	actions
	payload ContactsPayload
	derived *ContactsDerived
}

// NewContacts creates the block with fallback as its action sink.
func NewContacts(fallback ActionDispatcher) *Contacts {
	return &Contacts{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (c *Contacts) SetPayload(p ContactsPayload) {
	c.payload = p
	c.derived = nil
}

// Payload returns the current payload.
func (c *Contacts) Payload() ContactsPayload { return c.payload }

// Derived returns the role grouping, computed once per payload.
func (c *Contacts) Derived() *ContactsDerived {
	if c.derived == nil {
		c.derived = deriveContacts(c.payload)
	}
	return c.derived
}

func deriveContacts(p ContactsPayload) *ContactsDerived {
	d := &ContactsDerived{
		ByID:   make(map[string]Contact, len(p.Contacts)),
		ByRole: make(map[string][]Contact),
	}
	for _, ct := range p.Contacts {
		d.ByID[ct.ID] = ct
		d.ByRole[ct.Role] = append(d.ByRole[ct.Role], ct)
	}
	for role, cts := range d.ByRole {
		sort.Slice(cts, func(i, j int) bool { return cts[i].Name < cts[j].Name })
		d.Roles = append(d.Roles, role)
	}
	sort.Strings(d.Roles)
	return d
}

// Open reports a contact-open gesture. Unknown ids are ignored.
func (c *Contacts) Open(id string) {
	if _, ok := c.Derived().ByID[id]; !ok {
		return
	}
	c.dispatch("contact.open", id, nil)
}

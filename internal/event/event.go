// Package event is the synchronous notification channel of the combat engine.
// Listeners are invoked in subscription order on the publisher's goroutine;
// there is no buffering and no retry.
package event

import (
	"fmt"
	"slices"

	"github.com/yohamta/donburi"
)

// Type identifies a kind of event.
type Type string

const (
	CombatStarted   Type = "combat_started"
	TurnStarted     Type = "turn_started"
	TurnSkipped     Type = "turn_skipped"
	TurnResolved    Type = "turn_resolved"
	ActionMissed    Type = "action_missed"
	EntityDefeated  Type = "entity_defeated"
	EscapeAttempted Type = "escape_attempted"
	CombatEnded     Type = "combat_ended"
	Message         Type = "message"
)

// Event carries a lifecycle notification. Fields that do not apply to the
// event type are left zero.
type Event struct {
	Type   Type
	Actor  *donburi.Entry
	Target *donburi.Entry
	Action string
	Round  int
	Text   string

	// Success is set for TurnResolved and EscapeAttempted.
	Success bool
}

// Listener receives published events.
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(e Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Bus fans events out to subscribers.
type Bus struct {
	subs []subscription
}

// subscription is one registration; all matches every event type.
type subscription struct {
	typ      Type
	all      bool
	listener Listener
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers l for events of type t.
func (b *Bus) Subscribe(t Type, l Listener) {
	b.subs = append(b.subs, subscription{typ: t, listener: l})
}

// SubscribeAll registers l for every event type.
func (b *Bus) SubscribeAll(l Listener) {
	b.subs = append(b.subs, subscription{all: true, listener: l})
}

// Unsubscribe removes the first registration of l for type t. l must be
// comparable, so ListenerFunc registrations cannot be removed.
// A delivery already in progress still reaches every listener it started with.
func (b *Bus) Unsubscribe(t Type, l Listener) {
	i := slices.IndexFunc(b.subs, func(s subscription) bool {
		return !s.all && s.typ == t && s.listener == l
	})
	if i < 0 {
		return
	}
	b.subs = slices.Delete(slices.Clone(b.subs), i, i+1)
}

// Publish delivers e to its subscribers in subscription order. A nil Bus
// drops the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	for _, s := range b.subs {
		if s.all || s.typ == e.Type {
			s.listener.OnEvent(e)
		}
	}
}

// Say publishes a narration Message.
func (b *Bus) Say(format string, args ...any) {
	if b == nil {
		return
	}
	b.Publish(Event{Type: Message, Text: fmt.Sprintf(format, args...)})
}

// Recorder is a Listener that keeps every event it sees.
type Recorder struct {
	Events []Event
}

// OnEvent appends e.
func (r *Recorder) OnEvent(e Event) {
	r.Events = append(r.Events, e)
}

// Of returns the recorded events of type t.
func (r *Recorder) Of(t Type) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the narration texts in order.
func (r *Recorder) Messages() []string {
	var out []string
	for _, e := range r.Events {
		if e.Type == Message {
			out = append(out, e.Text)
		}
	}
	return out
}

// Package turn schedules combatants by initiative, round after round.
package turn

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/model"
)

// Turn is a queued combatant with the initiative it was scheduled at.
type Turn struct {
	Entity     *donburi.Entry
	Initiative int
}

// Manager owns the initiative queue of one encounter.
//
// Each round every combatant still in the encounter acts once, in
// descending Speed read at the start of the round. Equal Speed keeps
// roster order. A combatant that dies leaves the encounter for good.
type Manager struct {
	queue   []Turn
	roster  []*donburi.Entry
	current *donburi.Entry
	round   int
}

// NewManager creates an idle manager.
func NewManager() *Manager {
	return &Manager{}
}

// Initialize schedules round 1 over the living entities and makes the
// fastest one active. Entities without Stats are ignored.
func (m *Manager) Initialize(entities []*donburi.Entry) {
	m.Reset()
	for _, e := range entities {
		if model.IsAlive(e) {
			m.roster = append(m.roster, e)
		}
	}
	if len(m.roster) == 0 {
		return
	}
	m.round = 1
	m.fill()
	m.Next()
}

// Current returns the active entity, or nil.
func (m *Manager) Current() *donburi.Entry { return m.current }

// Round returns the round of the active entity. Zero before Initialize.
func (m *Manager) Round() int { return m.round }

// QueueSize returns the number of entities still waiting this round.
func (m *Manager) QueueSize() int { return len(m.queue) }

// Roster returns the entities still taking part in the encounter.
func (m *Manager) Roster() []*donburi.Entry { return slices.Clone(m.roster) }

// Next makes the next living entity active if none is, starting a new
// round when the current one is exhausted. It returns the active entity,
// or nil once nobody is left.
func (m *Manager) Next() *donburi.Entry {
	if m.current != nil {
		return m.current
	}
	for m.current == nil {
		if len(m.queue) == 0 {
			if !m.prepareNextRound() {
				return nil
			}
		}
		t := m.queue[0]
		m.queue = m.queue[1:]
		if !model.IsAlive(t.Entity) {
			m.drop(t.Entity)
			continue
		}
		m.current = t.Entity
		slog.Debug("turn started",
			"entity", model.NameOf(t.Entity),
			"initiative", t.Initiative,
			"round", m.round)
	}
	return m.current
}

// EndTurn finishes the active entity's turn and advances. An entity that
// died during its own turn is not scheduled again.
func (m *Manager) EndTurn() *donburi.Entry {
	if m.current == nil {
		return nil
	}
	if !model.IsAlive(m.current) {
		m.drop(m.current)
	}
	m.current = nil
	return m.Next()
}

// Order returns the active entity followed by the rest of this round's
// queue, in acting order.
func (m *Manager) Order() []*donburi.Entry {
	out := make([]*donburi.Entry, 0, len(m.queue)+1)
	if m.current != nil {
		out = append(out, m.current)
	}
	for _, t := range m.queue {
		out = append(out, t.Entity)
	}
	return out
}

// Queue returns a snapshot of the entries still waiting this round.
func (m *Manager) Queue() []Turn { return slices.Clone(m.queue) }

// IsCombatOver reports whether every member of any roster is dead.
func (m *Manager) IsCombatOver(rosters ...[]*donburi.Entry) bool {
	for _, r := range rosters {
		if model.AllDefeated(r) {
			return true
		}
	}
	return false
}

// Reset drops all scheduling state.
func (m *Manager) Reset() {
	m.queue = nil
	m.roster = nil
	m.current = nil
	m.round = 0
}

// prepareNextRound requeues the roster for the next round. It reports
// false when nobody is left to act.
func (m *Manager) prepareNextRound() bool {
	m.roster = slices.DeleteFunc(m.roster, func(e *donburi.Entry) bool {
		return !model.IsAlive(e)
	})
	if len(m.roster) == 0 {
		return false
	}
	m.round++
	m.fill()
	slog.Debug("round started", "round", m.round, "combatants", len(m.queue))
	return true
}

// fill builds the queue from the roster in descending initiative.
// Ties keep roster order.
func (m *Manager) fill() {
	m.queue = m.queue[:0]
	for _, e := range m.roster {
		m.queue = append(m.queue, Turn{Entity: e, Initiative: initiative(e)})
	}
	slices.SortStableFunc(m.queue, func(a, b Turn) int {
		return cmp.Compare(b.Initiative, a.Initiative)
	})
}

func (m *Manager) drop(e *donburi.Entry) {
	m.roster = slices.DeleteFunc(m.roster, func(r *donburi.Entry) bool {
		return model.Same(r, e)
	})
}

func initiative(e *donburi.Entry) int {
	return model.StatsOf(e).CurrentStat(model.Speed)
}

package model

import (
	"fmt"
	"sync"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
)

// Identity names a combatant for narration and logs.
type Identity struct {
	Name string
}

// Position is the battlefield slot a combatant occupies.
type Position struct {
	Slot int
}

// Component types of the combat capabilities every package queries.
var (
	IdentityComponent = donburi.NewComponentType[Identity]()
	StatsComponent    = donburi.NewComponentType[Stats]()
	PositionComponent = donburi.NewComponentType[Position]()
)

// worldMu serializes donburi.NewWorld, which bumps an unguarded package
// counter for world IDs.
var worldMu sync.Mutex

// NewWorld creates an ECS world. Unlike donburi.NewWorld it is safe to call
// from concurrent encounters.
func NewWorld() donburi.World {
	worldMu.Lock()
	defer worldMu.Unlock()
	return donburi.NewWorld()
}

// Spawn creates a combatant entity with Identity and Stats plus any extra
// component types (left at their zero values).
func Spawn(w donburi.World, name string, stats Stats, extra ...component.IComponentType) *donburi.Entry {
	types := append([]component.IComponentType{IdentityComponent, StatsComponent}, extra...)
	entry := w.Entry(w.Create(types...))
	IdentityComponent.SetValue(entry, Identity{Name: name})
	StatsComponent.SetValue(entry, stats)
	return entry
}

// NameOf returns the combatant name, or a placeholder for anonymous entries.
func NameOf(e *donburi.Entry) string {
	if e == nil {
		return "<nil>"
	}
	if !e.Valid() || !e.HasComponent(IdentityComponent) {
		return fmt.Sprintf("entity#%d", e.Entity().Id())
	}
	return IdentityComponent.Get(e).Name
}

// HasStats reports whether the entry carries a Stats component.
func HasStats(e *donburi.Entry) bool {
	return e != nil && e.Valid() && e.HasComponent(StatsComponent)
}

// StatsOf returns a mutable reference to the entry's Stats.
// Asking for Stats on an entity without them is a programming error.
func StatsOf(e *donburi.Entry) *Stats {
	if !HasStats(e) {
		panic(fmt.Sprintf("model: %s has no Stats component", NameOf(e)))
	}
	return StatsComponent.Get(e)
}

// HasPosition reports whether the entry carries a Position component.
func HasPosition(e *donburi.Entry) bool {
	return e != nil && e.Valid() && e.HasComponent(PositionComponent)
}

// PositionOf returns a mutable reference to the entry's Position.
// Panics when the capability is missing.
func PositionOf(e *donburi.Entry) *Position {
	if !HasPosition(e) {
		panic(fmt.Sprintf("model: %s has no Position component", NameOf(e)))
	}
	return PositionComponent.Get(e)
}

// IsAlive reports whether the entry has Stats and is not dead.
// Entries without Stats never count as alive.
func IsAlive(e *donburi.Entry) bool {
	return HasStats(e) && !StatsOf(e).IsDead()
}

// AllDefeated reports whether no member of the roster is alive.
// An empty roster counts as defeated.
func AllDefeated(roster []*donburi.Entry) bool {
	for _, e := range roster {
		if IsAlive(e) {
			return false
		}
	}
	return true
}

// Same reports whether two entries refer to the same entity.
func Same(a, b *donburi.Entry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Entity() == b.Entity()
}

// Contains reports whether roster holds e.
func Contains(roster []*donburi.Entry, e *donburi.Entry) bool {
	for _, r := range roster {
		if Same(r, e) {
			return true
		}
	}
	return false
}

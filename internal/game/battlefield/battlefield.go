// Package battlefield models the linear strip of slots combatants stand on.
//
// Slots [0, Size/2) are the ally side, [Size/2, Size) the enemy side.
// A slot holds at most one entity and a placed entity holds exactly one
// slot; both are enforced by PlaceEntity and MoveEntity.
package battlefield

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/model"
)

// DefaultSize is the number of slots of a standard battlefield.
const DefaultSize = 8

var (
	ErrInvalidPosition = errors.New("position out of bounds")
	ErrOccupied        = errors.New("position occupied")
	ErrAlreadyPlaced   = errors.New("entity already on battlefield")
	ErrNotPlaced       = errors.New("entity not on battlefield")
)

// Battlefield binds entities to slots.
type Battlefield struct {
	slots    []*donburi.Entry
	entities []*donburi.Entry
}

// New creates an empty battlefield with size slots.
// A non-positive size falls back to DefaultSize.
func New(size int) *Battlefield {
	if size <= 0 {
		size = DefaultSize
	}
	return &Battlefield{slots: make([]*donburi.Entry, size)}
}

// Size returns the number of slots.
func (b *Battlefield) Size() int { return len(b.slots) }

// IsValidPosition reports whether p is inside the strip.
func (b *Battlefield) IsValidPosition(p int) bool {
	return p >= 0 && p < len(b.slots)
}

// IsPositionOccupied reports whether a valid slot holds an entity.
func (b *Battlefield) IsPositionOccupied(p int) bool {
	return b.IsValidPosition(p) && b.slots[p] != nil
}

// EntityAt returns the entity at p, or nil for empty or invalid slots.
func (b *Battlefield) EntityAt(p int) *donburi.Entry {
	if !b.IsValidPosition(p) {
		return nil
	}
	return b.slots[p]
}

// PlaceEntity puts e on slot p and sets its Position component, attaching
// one if e has none.
func (b *Battlefield) PlaceEntity(e *donburi.Entry, p int) error {
	if !b.IsValidPosition(p) {
		return fmt.Errorf("placing %s at %d: %w", model.NameOf(e), p, ErrInvalidPosition)
	}
	if b.slots[p] != nil {
		return fmt.Errorf("placing %s at %d: %w", model.NameOf(e), p, ErrOccupied)
	}
	if b.Contains(e) {
		return fmt.Errorf("placing %s at %d: %w", model.NameOf(e), p, ErrAlreadyPlaced)
	}

	if !model.HasPosition(e) {
		e.AddComponent(model.PositionComponent)
	}
	model.PositionComponent.SetValue(e, model.Position{Slot: p})

	b.slots[p] = e
	b.entities = append(b.entities, e)

	slog.Debug("entity placed", "entity", model.NameOf(e), "slot", p)
	return nil
}

// MoveEntity moves a placed entity to the empty slot p.
func (b *Battlefield) MoveEntity(e *donburi.Entry, p int) error {
	if err := b.CheckMove(e, p); err != nil {
		return err
	}

	pos := model.PositionOf(e)
	from := pos.Slot
	b.slots[from] = nil
	b.slots[p] = e
	pos.Slot = p

	slog.Debug("entity moved", "entity", model.NameOf(e), "from", from, "to", p)
	return nil
}

// CheckMove returns why e cannot move to p, or nil if it can.
// It never mutates the battlefield.
func (b *Battlefield) CheckMove(e *donburi.Entry, p int) error {
	if !b.Contains(e) || !model.HasPosition(e) {
		return fmt.Errorf("moving %s: %w", model.NameOf(e), ErrNotPlaced)
	}
	if !b.IsValidPosition(p) {
		return fmt.Errorf("moving %s to %d: %w", model.NameOf(e), p, ErrInvalidPosition)
	}
	if b.slots[p] != nil {
		return fmt.Errorf("moving %s to %d: %w", model.NameOf(e), p, ErrOccupied)
	}
	return nil
}

// CanMoveTo is the boolean form of CheckMove.
func (b *Battlefield) CanMoveTo(e *donburi.Entry, p int) bool {
	return b.CheckMove(e, p) == nil
}

// Distance returns |a-b|, or -1 if either slot is invalid.
func (b *Battlefield) Distance(a, c int) int {
	if !b.IsValidPosition(a) || !b.IsValidPosition(c) {
		return -1
	}
	if a > c {
		return a - c
	}
	return c - a
}

// PositionOf returns the slot of a placed entity.
func (b *Battlefield) PositionOf(e *donburi.Entry) (int, bool) {
	if !b.Contains(e) || !model.HasPosition(e) {
		return 0, false
	}
	return model.PositionOf(e).Slot, true
}

// IsAllySide reports whether a placed entity stands on [0, Size/2).
func (b *Battlefield) IsAllySide(e *donburi.Entry) bool {
	p, ok := b.PositionOf(e)
	return ok && p >= 0 && p < b.half()
}

// IsEnemySide reports whether a placed entity stands on [Size/2, Size).
func (b *Battlefield) IsEnemySide(e *donburi.Entry) bool {
	p, ok := b.PositionOf(e)
	return ok && p >= b.half() && p < len(b.slots)
}

// AllySideEntities returns the occupants of the ally side in slot order.
func (b *Battlefield) AllySideEntities() []*donburi.Entry {
	return b.occupants(0, b.half())
}

// EnemySideEntities returns the occupants of the enemy side in slot order.
func (b *Battlefield) EnemySideEntities() []*donburi.Entry {
	return b.occupants(b.half(), len(b.slots))
}

// Entities returns every placed entity in placement order.
func (b *Battlefield) Entities() []*donburi.Entry {
	out := make([]*donburi.Entry, len(b.entities))
	copy(out, b.entities)
	return out
}

// Contains reports whether e has been placed.
func (b *Battlefield) Contains(e *donburi.Entry) bool {
	return model.Contains(b.entities, e)
}

// Clear removes every binding. Position components are left as they are.
func (b *Battlefield) Clear() {
	clear(b.slots)
	b.entities = nil
}

func (b *Battlefield) half() int { return len(b.slots) / 2 }

func (b *Battlefield) occupants(from, to int) []*donburi.Entry {
	var out []*donburi.Entry
	for p := from; p < to; p++ {
		if b.slots[p] != nil {
			out = append(out, b.slots[p])
		}
	}
	return out
}

// Package status implements timed status effects (poison, stun, stat
// buffs) and the per-combatant list that drives their turn hooks.
package status

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

// ErrUnsupportedKind is returned by New for kinds without a built-in effect.
var ErrUnsupportedKind = errors.New("unsupported status kind")

// Component is the donburi component type holding a combatant's effects.
var Component = donburi.NewComponentType[Effects]()

// Effects is the ordered list of active status effects on one combatant.
// Effects are keyed by name: adding an effect whose name is already
// present replaces the old one in place.
type Effects struct {
	active []Effect
}

// Has reports whether e carries the Effects component.
func Has(e *donburi.Entry) bool {
	return e != nil && e.Valid() && e.HasComponent(Component)
}

// Of returns the entry's effect list. Panics when the component is missing.
func Of(e *donburi.Entry) *Effects {
	if !Has(e) {
		panic(fmt.Sprintf("status: %s has no Effects component", model.NameOf(e)))
	}
	return Component.Get(e)
}

// Add attaches eff, replacing an existing effect with the same name.
func (s *Effects) Add(eff Effect) {
	if eff == nil {
		return
	}
	if i := s.index(eff.Name()); i >= 0 {
		s.active[i] = eff
		slog.Debug("status effect refreshed", "effect", eff.Name(), "duration", eff.Duration())
		return
	}
	s.active = append(s.active, eff)
	slog.Debug("status effect applied", "effect", eff.Name(), "duration", eff.Duration())
}

// Remove drops every effect named name.
func (s *Effects) Remove(name string) {
	s.active = slices.DeleteFunc(s.active, func(eff Effect) bool {
		return eff.Name() == name
	})
}

// Clear drops all effects.
func (s *Effects) Clear() {
	s.active = nil
}

// List returns a snapshot of the active effects in application order.
func (s *Effects) List() []Effect {
	return slices.Clone(s.active)
}

// Len returns the number of active effects.
func (s *Effects) Len() int { return len(s.active) }

// Has reports whether any active effect is of kind k.
func (s *Effects) Has(k Kind) bool {
	return slices.ContainsFunc(s.active, func(eff Effect) bool {
		return eff.Kind() == k
	})
}

// HasNamed reports whether an effect named name is active.
func (s *Effects) HasNamed(name string) bool {
	return s.index(name) >= 0
}

// ProcessTurnStart runs every start hook, then purges expired effects.
func (s *Effects) ProcessTurnStart(owner *donburi.Entry, r rnd.Source) {
	if len(s.active) == 0 {
		return
	}
	for _, eff := range s.active {
		eff.OnTurnStart(owner, r)
	}
	s.purge(owner)
}

// ProcessNewTurn reports whether the owner may act this turn.
func (s *Effects) ProcessNewTurn(owner *donburi.Entry) bool {
	return s.Blocker(owner) == nil
}

// ProcessTurnEnd runs every end hook, then purges expired effects.
func (s *Effects) ProcessTurnEnd(owner *donburi.Entry) {
	if len(s.active) == 0 {
		return
	}
	for _, eff := range s.active {
		eff.OnTurnEnd(owner)
	}
	s.purge(owner)
}

// Blocker asks each effect, in list order, whether the owner may act and
// returns the first one that vetoes, or nil. Effects after the veto are
// not asked.
func (s *Effects) Blocker(owner *donburi.Entry) Effect {
	for _, eff := range s.active {
		if !eff.OnNewTurn(owner) {
			slog.Debug("turn vetoed", "entity", model.NameOf(owner), "effect", eff.Name())
			return eff
		}
	}
	return nil
}

func (s *Effects) index(name string) int {
	return slices.IndexFunc(s.active, func(eff Effect) bool {
		return eff.Name() == name
	})
}

func (s *Effects) purge(owner *donburi.Entry) {
	s.active = slices.DeleteFunc(s.active, func(eff Effect) bool {
		if eff.Expired() {
			slog.Debug("status effect expired", "effect", eff.Name(), "entity", model.NameOf(owner))
			return true
		}
		return false
	})
}

// New builds a built-in effect. Buff and Debuff target Strength with
// |magnitude| and -|magnitude| respectively; Poison uses magnitude as
// damage per turn.
func New(kind Kind, duration, magnitude int) (Effect, error) {
	switch kind {
	case Poison:
		return NewPoison(duration, magnitude), nil
	case Stun:
		return NewStun(duration), nil
	case Buff:
		return NewStatBuff(duration, model.Strength, abs(magnitude)), nil
	case Debuff:
		return NewStatBuff(duration, model.Strength, -abs(magnitude)), nil
	default:
		return nil, fmt.Errorf("creating %s effect: %w", kind, ErrUnsupportedKind)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

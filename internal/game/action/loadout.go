package action

import "github.com/yohamta/donburi"

// Loadout is the set of actions a combatant can choose from.
type Loadout struct {
	Actions []*Action
}

// LoadoutComponent is the donburi component type holding a Loadout.
var LoadoutComponent = donburi.NewComponentType[Loadout]()

// Equip gives e the actions, attaching a Loadout component if needed.
func Equip(e *donburi.Entry, actions ...*Action) {
	if !e.HasComponent(LoadoutComponent) {
		e.AddComponent(LoadoutComponent)
	}
	l := LoadoutComponent.Get(e)
	l.Actions = append(l.Actions, actions...)
}

// LoadoutOf returns the actions of e, or nil when it has no loadout.
func LoadoutOf(e *donburi.Entry) []*Action {
	if e == nil || !e.Valid() || !e.HasComponent(LoadoutComponent) {
		return nil
	}
	return LoadoutComponent.Get(e).Actions
}

// Find returns the action of e with the given id.
func Find(e *donburi.Entry, id string) (*Action, bool) {
	for _, a := range LoadoutOf(e) {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// Owns reports whether a belongs to e's loadout.
func Owns(e *donburi.Entry, a *Action) bool {
	for _, own := range LoadoutOf(e) {
		if own == a {
			return true
		}
	}
	return false
}

// TickCooldowns decreases the cooldown of every action of e except used,
// which may be nil.
func TickCooldowns(e *donburi.Entry, used *Action) {
	for _, a := range LoadoutOf(e) {
		if a != used {
			a.DecreaseCooldown()
		}
	}
}

// ResetCooldowns makes every action of e usable again.
func ResetCooldowns(e *donburi.Entry) {
	for _, a := range LoadoutOf(e) {
		a.ResetCooldown()
	}
}

// Ready returns the actions of e that are off cooldown.
func Ready(e *donburi.Entry) []*Action {
	var out []*Action
	for _, a := range LoadoutOf(e) {
		if !a.IsOnCooldown() {
			out = append(out, a)
		}
	}
	return out
}

package action

import (
	"fmt"
	"sort"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/game/status"
	"github.com/udisondev/skirmish/internal/model"
)

// specialRegistry maps a callback name to the behaviour of Special
// actions. Populated by init.
var specialRegistry = map[string]Callback{}

// RegisterSpecial registers a Special action callback by name.
func RegisterSpecial(name string, cb Callback) {
	specialRegistry[name] = cb
}

// LookupSpecial returns the callback registered under name.
func LookupSpecial(name string) (Callback, error) {
	cb, ok := specialRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown special callback: %s", name)
	}
	return cb, nil
}

// Specials lists the registered callback names in sorted order.
func Specials() []string {
	names := make([]string, 0, len(specialRegistry))
	for name := range specialRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterSpecial("venom", inflict(func() status.Effect { return status.NewPoison(3, 4) }))
	RegisterSpecial("concuss", inflict(func() status.Effect { return status.NewStun(1) }))
	RegisterSpecial("battle_cry", empower(func() status.Effect { return status.NewStatBuff(3, model.Strength, 3) }))
	RegisterSpecial("second_wind", secondWind)
}

// inflict attaches a fresh status effect to the target.
func inflict(build func() status.Effect) Callback {
	return func(user, target *donburi.Entry, scene Scene) {
		if !status.Has(target) {
			return
		}
		eff := build()
		status.Of(target).Add(eff)
		scene.say("%s afflicts %s with %s", model.NameOf(user), model.NameOf(target), eff.Name())
	}
}

// empower attaches a fresh status effect to the user.
func empower(build func() status.Effect) Callback {
	return func(user, _ *donburi.Entry, scene Scene) {
		if !status.Has(user) {
			return
		}
		eff := build()
		status.Of(user).Add(eff)
		scene.say("%s gains %s", model.NameOf(user), eff.Name())
	}
}

// secondWind restores a quarter of the user's max health.
func secondWind(user, _ *donburi.Entry, scene Scene) {
	stats := model.StatsOf(user)
	before := stats.CurrentHealth()
	stats.Heal(stats.MaxHealth() / 4)
	healed := stats.CurrentHealth() - before

	scene.say("%s catches a second wind and recovers %d health", model.NameOf(user), healed)
	if o := scene.outcome; o != nil {
		o.Healed += healed
	}
}

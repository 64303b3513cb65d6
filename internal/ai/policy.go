// Package ai picks actions for combatants that are not driven by a player.
package ai

import (
	"log/slog"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/game/action"
	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

// lowHealthThreshold is the health fraction under which TacticalPolicy
// prefers healing itself.
const lowHealthThreshold = 0.3

// Option is a usable (action, target) pair.
type Option struct {
	Action *action.Action
	Target *donburi.Entry
}

// Policy chooses one option for the acting combatant. It reports false
// when it prefers to skip the turn; an empty option list always skips.
type Policy interface {
	Choose(actor *donburi.Entry, options []Option, r rnd.Source) (Option, bool)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(actor *donburi.Entry, options []Option, r rnd.Source) (Option, bool)

func (f PolicyFunc) Choose(actor *donburi.Entry, options []Option, r rnd.Source) (Option, bool) {
	return f(actor, options, r)
}

// RandomPolicy picks uniformly among all options.
type RandomPolicy struct{}

func (RandomPolicy) Choose(_ *donburi.Entry, options []Option, r rnd.Source) (Option, bool) {
	i := rnd.Pick(r, len(options))
	if i < 0 {
		return Option{}, false
	}
	return options[i], true
}

// TacticalPolicy heals itself when badly hurt, otherwise uses its
// hardest-hitting action on the weakest target. It falls back to a
// random choice when no option deals damage.
type TacticalPolicy struct{}

func (TacticalPolicy) Choose(actor *donburi.Entry, options []Option, r rnd.Source) (Option, bool) {
	if len(options) == 0 {
		return Option{}, false
	}

	if model.HasStats(actor) && model.StatsOf(actor).HealthPercentage() < lowHealthThreshold {
		for _, o := range options {
			if o.Action.Type() == action.Heal && model.Same(o.Target, actor) {
				if IsDebugEnabled() {
					slog.Debug("ai heals itself", "actor", model.NameOf(actor), "action", o.Action.ID())
				}
				return o, true
			}
		}
	}

	best := -1
	bestDamage := 0
	bestHealth := 0.0
	for i, o := range options {
		damage := o.Action.EstimatedDamage(actor)
		if damage <= 0 || !model.HasStats(o.Target) {
			continue
		}
		health := model.StatsOf(o.Target).HealthPercentage()
		if best < 0 || damage > bestDamage || (damage == bestDamage && health < bestHealth) {
			best, bestDamage, bestHealth = i, damage, health
		}
	}
	if best >= 0 {
		if IsDebugEnabled() {
			slog.Debug("ai picks strongest attack",
				"actor", model.NameOf(actor),
				"action", options[best].Action.ID(),
				"target", model.NameOf(options[best].Target),
				"damage", bestDamage)
		}
		return options[best], true
	}

	return RandomPolicy{}.Choose(actor, options, r)
}

// ByName returns the policy registered under name: "random" or "tactical".
func ByName(name string) (Policy, bool) {
	switch name {
	case "random", "":
		return RandomPolicy{}, true
	case "tactical":
		return TacticalPolicy{}, true
	}
	return nil, false
}

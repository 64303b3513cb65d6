package action

import (
	"log/slog"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/event"
	"github.com/udisondev/skirmish/internal/game/battlefield"
	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

// Scene is what an effect may touch besides the two combatants.
// Rand must be set for Execute; Battlefield and Bus are optional.
type Scene struct {
	Battlefield *battlefield.Battlefield
	Rand        rnd.Source
	Bus         *event.Bus

	outcome *Outcome
}

func (s Scene) say(format string, args ...any) {
	s.Bus.Say(format, args...)
}

// Effect is one unit of an action's behaviour.
//
// CanApply must not mutate anything. Execute reports whether it changed
// the world; Action.Execute only calls it after CanApply returned true.
type Effect interface {
	CanApply(user, target *donburi.Entry, bf *battlefield.Battlefield) bool
	Execute(user, target *donburi.Entry, scene Scene) bool
}

// Damage hits the target for Base plus half of STR (Physical) or INT,
// doubled on a critical roll against the user's crit chance. The target
// may still block.
type Damage struct {
	Base      int
	Physical  bool
	AllowSelf bool
}

func (d Damage) CanApply(user, target *donburi.Entry, _ *battlefield.Battlefield) bool {
	if !model.HasStats(user) || !model.HasStats(target) {
		return false
	}
	return d.AllowSelf || !model.Same(user, target)
}

func (d Damage) Execute(user, target *donburi.Entry, scene Scene) bool {
	if !model.HasStats(user) || !model.HasStats(target) {
		return false
	}
	attacker := model.StatsOf(user)
	defender := model.StatsOf(target)

	amount := attacker.MagicalDamage(d.Base)
	if d.Physical {
		amount = attacker.PhysicalDamage(d.Base)
	}

	critical := rnd.Chance(scene.Rand, attacker.CriticalChance())
	if critical {
		amount *= 2
		scene.say("Critical hit!")
	}

	before := defender.CurrentHealth()
	killed := defender.TakeDamage(amount, scene.Rand)
	dealt := before - defender.CurrentHealth()

	if dealt == 0 && amount > 0 && !killed {
		scene.say("%s blocked the attack from %s", model.NameOf(target), model.NameOf(user))
	} else {
		scene.say("%s dealt %d damage to %s", model.NameOf(user), dealt, model.NameOf(target))
	}
	if killed {
		scene.say("%s has been defeated", model.NameOf(target))
	}

	if o := scene.outcome; o != nil {
		o.Damage += dealt
		o.Critical = o.Critical || critical
		o.Blocked = o.Blocked || (dealt == 0 && amount > 0 && !killed)
	}

	slog.Debug("damage effect",
		"user", model.NameOf(user),
		"target", model.NameOf(target),
		"rolled", amount,
		"dealt", dealt,
		"critical", critical,
		"killed", killed)
	return true
}

// Healing restores a fixed amount of health. It does not apply to a
// target at full health.
type Healing struct {
	Amount int
}

func (h Healing) CanApply(_, target *donburi.Entry, _ *battlefield.Battlefield) bool {
	return model.HasStats(target) && !model.StatsOf(target).IsFullHealth()
}

func (h Healing) Execute(user, target *donburi.Entry, scene Scene) bool {
	if !model.HasStats(target) {
		return false
	}
	stats := model.StatsOf(target)
	before := stats.CurrentHealth()
	stats.Heal(h.Amount)
	healed := stats.CurrentHealth() - before

	scene.say("%s restored %d health to %s", model.NameOf(user), healed, model.NameOf(target))
	if o := scene.outcome; o != nil {
		o.Healed += healed
	}
	return true
}

// Shift moves the target Delta slots along the battlefield.
type Shift struct {
	Delta int
}

// Destination returns the slot the target would move to.
func (m Shift) Destination(target *donburi.Entry) int {
	return model.PositionOf(target).Slot + m.Delta
}

func (m Shift) CanApply(_, target *donburi.Entry, bf *battlefield.Battlefield) bool {
	if bf == nil || !model.HasPosition(target) {
		return false
	}
	return bf.CanMoveTo(target, m.Destination(target))
}

func (m Shift) Execute(_, target *donburi.Entry, scene Scene) bool {
	if scene.Battlefield == nil || !model.HasPosition(target) {
		return false
	}
	dest := m.Destination(target)
	if err := scene.Battlefield.MoveEntity(target, dest); err != nil {
		slog.Debug("movement effect rejected", "target", model.NameOf(target), "err", err)
		return false
	}

	direction := "forward"
	if m.Delta < 0 {
		direction = "backward"
	}
	scene.say("%s moved %s to position %d", model.NameOf(target), direction, dest)
	if o := scene.outcome; o != nil {
		o.Moved = true
	}
	return true
}

// StatModifier adds a timed modifier to the target's stats. The sign of
// Delta only changes the narration.
type StatModifier struct {
	Stat     model.StatType
	Delta    int
	Duration int
}

func (s StatModifier) CanApply(_, target *donburi.Entry, _ *battlefield.Battlefield) bool {
	return model.HasStats(target)
}

func (s StatModifier) Execute(_, target *donburi.Entry, scene Scene) bool {
	if !model.HasStats(target) {
		return false
	}
	model.StatsOf(target).AddModifier(s.Stat, s.Delta, s.Duration)

	verb := "buffed"
	delta := s.Delta
	if delta <= 0 {
		verb = "debuffed"
		delta = -delta
	}
	scene.say("%s's %s %s by %d for %d turns", model.NameOf(target), s.Stat.Key(), verb, delta, s.Duration)
	if o := scene.outcome; o != nil {
		o.Modified++
	}
	return true
}

// OnUser redirects an effect to the acting combatant, ignoring the
// nominal target: life drain heals the user, a charge moves the user.
func OnUser(e Effect) Effect {
	return userSubject{inner: e}
}

type userSubject struct {
	inner Effect
}

func (u userSubject) CanApply(user, _ *donburi.Entry, bf *battlefield.Battlefield) bool {
	return u.inner.CanApply(user, user, bf)
}

func (u userSubject) Execute(user, _ *donburi.Entry, scene Scene) bool {
	return u.inner.Execute(user, user, scene)
}

// Unwrap returns the redirected effect.
func (u userSubject) Unwrap() Effect { return u.inner }

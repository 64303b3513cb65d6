// Package action implements the action/effect pipeline: targeting rules,
// accuracy, effect execution and cooldowns.
package action

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/game/battlefield"
	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

const (
	DefaultAccuracy         = 100
	DefaultRange            = 1
	DefaultModifierDuration = 3
)

// Rule violations reported by CanUse and Execute. Nothing is mutated
// when one of these is returned.
var (
	ErrOnCooldown         = errors.New("action on cooldown")
	ErrNoTarget           = errors.New("no user or target")
	ErrMissingStats       = errors.New("user or target has no stats")
	ErrMissingPosition    = errors.New("user or target has no position")
	ErrOutOfRange         = errors.New("target out of range")
	ErrSelfOnly           = errors.New("action can only target its user")
	ErrSelfTarget         = errors.New("action cannot target its user")
	ErrNoApplicableEffect = errors.New("no effect applies to target")

	ErrDestinationOutOfBounds = errors.New("destination out of bounds")
	ErrDestinationOccupied    = errors.New("destination occupied")

	// ErrNothingApplied means the action passed every check but no effect
	// ran. The cooldown is not started.
	ErrNothingApplied = errors.New("no effect executed")
)

// StatDelta is one stat modification granted by a Buff, Debuff or
// Compound action.
type StatDelta struct {
	Stat  model.StatType
	Delta int
}

// Params are the typed numbers from which an action builds its effects.
type Params struct {
	Damage   int
	Physical bool

	// HealAmount is the heal of a Heal action and the self-heal of a
	// Compound action.
	HealAmount     int
	PositionChange int
	SelfOnly       bool
	CanTargetSelf  bool

	// Hostile makes Compound and Special actions target opponents.
	Hostile   bool
	Duration  int
	Modifiers []StatDelta
}

// Callback is the single-function behaviour of a Special action.
// A callback always counts as executed.
type Callback func(user, target *donburi.Entry, scene Scene)

// Outcome summarises a resolved Execute call.
type Outcome struct {
	// Missed is set when the accuracy roll failed. The cooldown started
	// and no effect ran.
	Missed bool

	// Executed counts effects that ran, including the callback.
	Executed int
	Damage   int
	Healed   int
	Critical bool
	Blocked  bool
	Moved    bool
	Modified int
}

// Action is a usable ability. Cooldown state is per instance, so every
// combatant should own its own instances.
type Action struct {
	id          string
	name        string
	description string
	typ         Type

	accuracy        int
	rng             int
	cooldown        int
	currentCooldown int

	params       Params
	effects      []Effect
	materialized bool
	callback     Callback
}

// New creates an action with accuracy 100, range 1 and no cooldown.
func New(id, name string, typ Type) *Action {
	return &Action{
		id:       id,
		name:     name,
		typ:      typ,
		accuracy: DefaultAccuracy,
		rng:      DefaultRange,
	}
}

func (a *Action) ID() string           { return a.id }
func (a *Action) Name() string         { return a.name }
func (a *Action) Description() string  { return a.description }
func (a *Action) Type() Type           { return a.typ }
func (a *Action) Accuracy() int        { return a.accuracy }
func (a *Action) Range() int           { return a.rng }
func (a *Action) Cooldown() int        { return a.cooldown }
func (a *Action) CurrentCooldown() int { return a.currentCooldown }
func (a *Action) Params() Params       { return a.params }

func (a *Action) SetDescription(d string) { a.description = d }

// SetAccuracy sets the hit chance, clamped to [0, 100].
func (a *Action) SetAccuracy(percent int) { a.accuracy = max(0, min(100, percent)) }

// SetRange sets the maximum slot distance. Zero disables the range check.
func (a *Action) SetRange(r int) { a.rng = max(0, r) }

func (a *Action) SetCooldown(turns int) { a.cooldown = max(0, turns) }

// SetParams replaces the parameters. Effects built from older params are
// dropped unless effects were attached explicitly.
func (a *Action) SetParams(p Params) {
	a.params = p
	if a.materialized {
		a.effects = nil
		a.materialized = false
	}
}

// AddEffect attaches an explicit effect. Actions with explicit effects
// never build effects from Params.
func (a *Action) AddEffect(e Effect) {
	if a.materialized {
		a.effects = nil
		a.materialized = false
	}
	a.effects = append(a.effects, e)
}

func (a *Action) SetCallback(cb Callback) { a.callback = cb }

// StartCooldown puts the action on its full cooldown.
func (a *Action) StartCooldown() { a.currentCooldown = a.cooldown }

// DecreaseCooldown counts down one turn, never below zero.
func (a *Action) DecreaseCooldown() {
	if a.currentCooldown > 0 {
		a.currentCooldown--
	}
}

// ResetCooldown makes the action immediately usable.
func (a *Action) ResetCooldown() { a.currentCooldown = 0 }

func (a *Action) IsOnCooldown() bool { return a.currentCooldown > 0 }

// IsSelfTargeted reports whether the action only ever targets its user.
func (a *Action) IsSelfTargeted() bool {
	return a.typ == Buff || a.typ == Movement || a.params.SelfOnly
}

// TargetsOpponents reports whether candidate targets come from the
// opposing roster rather than the user's own.
func (a *Action) TargetsOpponents() bool {
	return a.typ == Attack || a.typ == Debuff || a.params.Hostile
}

// Effects returns the action's effects, building them from Params on
// first use when none were attached.
func (a *Action) Effects() []Effect {
	if len(a.effects) == 0 && !a.materialized {
		a.effects = a.buildEffects()
		a.materialized = true
	}
	return a.effects
}

// EstimatedDamage is the unmodified damage this action would deal if
// used by user, ignoring crits and blocks.
func (a *Action) EstimatedDamage(user *donburi.Entry) int {
	if a.params.Damage <= 0 || !model.HasStats(user) {
		return 0
	}
	stats := model.StatsOf(user)
	if a.params.Physical {
		return stats.PhysicalDamage(a.params.Damage)
	}
	return stats.MagicalDamage(a.params.Damage)
}

// Usable is the boolean form of CanUse.
func (a *Action) Usable(user, target *donburi.Entry, bf *battlefield.Battlefield) bool {
	return a.CanUse(user, target, bf) == nil
}

// CanUse checks whether user may use the action on target right now.
// It returns nil or an error wrapping one of the rule sentinels.
func (a *Action) CanUse(user, target *donburi.Entry, bf *battlefield.Battlefield) error {
	if a.IsOnCooldown() {
		return fmt.Errorf("%s: %w (%d turns left)", a.id, ErrOnCooldown, a.currentCooldown)
	}
	if user == nil || target == nil {
		return fmt.Errorf("%s: %w", a.id, ErrNoTarget)
	}
	if !model.HasStats(user) || !model.HasStats(target) {
		return fmt.Errorf("%s: %w", a.id, ErrMissingStats)
	}

	if bf != nil && a.rng > 0 {
		if !model.HasPosition(user) || !model.HasPosition(target) {
			return fmt.Errorf("%s: %w", a.id, ErrMissingPosition)
		}
		distance := abs(model.PositionOf(user).Slot - model.PositionOf(target).Slot)
		if distance > a.rng {
			return fmt.Errorf("%s: %w (range %d, distance %d)", a.id, ErrOutOfRange, a.rng, distance)
		}
	}

	self := model.Same(user, target)
	if (a.typ == Buff || a.typ == Heal) && !self && a.params.SelfOnly {
		return fmt.Errorf("%s: %w", a.id, ErrSelfOnly)
	}
	if (a.typ == Attack || a.typ == Debuff) && self && !a.params.CanTargetSelf {
		return fmt.Errorf("%s: %w", a.id, ErrSelfTarget)
	}

	effects := a.Effects()
	if len(effects) > 0 && !slices.ContainsFunc(effects, func(e Effect) bool {
		return e.CanApply(user, target, bf)
	}) {
		if diag := a.movementDiagnostic(user, target, bf); diag != nil {
			return fmt.Errorf("%s: %w: %w", a.id, ErrNoApplicableEffect, diag)
		}
		return fmt.Errorf("%s: %w", a.id, ErrNoApplicableEffect)
	}
	return nil
}

// Execute uses the action. A rule violation returns an error and leaves
// everything untouched. A failed accuracy roll starts the cooldown and
// returns an Outcome with Missed set. Otherwise every effect whose
// CanApply holds runs in order, followed by the callback, and the
// cooldown starts if anything ran.
func (a *Action) Execute(user, target *donburi.Entry, scene Scene) (Outcome, error) {
	if err := a.CanUse(user, target, scene.Battlefield); err != nil {
		return Outcome{}, err
	}

	if a.accuracy < 100 {
		if roll := rnd.Roll100(scene.Rand); roll > a.accuracy {
			a.StartCooldown()
			scene.say("%s's %s missed", model.NameOf(user), a.name)
			slog.Debug("action missed", "action", a.id, "user", model.NameOf(user), "roll", roll, "accuracy", a.accuracy)
			return Outcome{Missed: true}, nil
		}
	}

	var out Outcome
	scene.outcome = &out

	effects := a.Effects()
	if a.typ == Compound && len(effects) > 1 {
		scene.say("%s unleashes %s!", model.NameOf(user), a.name)
	}
	for _, eff := range effects {
		if !eff.CanApply(user, target, scene.Battlefield) {
			continue
		}
		if eff.Execute(user, target, scene) {
			out.Executed++
		}
	}
	if a.callback != nil {
		a.callback(user, target, scene)
		out.Executed++
	}

	if out.Executed == 0 {
		return out, fmt.Errorf("%s: %w", a.id, ErrNothingApplied)
	}
	a.StartCooldown()

	slog.Debug("action executed",
		"action", a.id,
		"user", model.NameOf(user),
		"target", model.NameOf(target),
		"effects", out.Executed)
	return out, nil
}

// buildEffects turns Params into effects according to the action type.
// Compound effects run in a fixed order: damage, self-heal, self-move,
// then stat modifiers (positive on the user, negative on the target).
func (a *Action) buildEffects() []Effect {
	p := a.params
	duration := p.Duration
	if duration <= 0 {
		duration = DefaultModifierDuration
	}
	mods := slices.Clone(p.Modifiers)
	slices.SortStableFunc(mods, func(x, y StatDelta) int { return int(x.Stat) - int(y.Stat) })

	var effects []Effect
	switch a.typ {
	case Attack:
		if p.Damage > 0 {
			effects = append(effects, Damage{Base: p.Damage, Physical: p.Physical, AllowSelf: p.CanTargetSelf})
		}
	case Heal:
		if p.HealAmount > 0 {
			effects = append(effects, Healing{Amount: p.HealAmount})
		}
	case Movement:
		if p.PositionChange != 0 {
			effects = append(effects, Shift{Delta: p.PositionChange})
		}
	case Buff, Debuff:
		for _, m := range mods {
			effects = append(effects, StatModifier{Stat: m.Stat, Delta: m.Delta, Duration: duration})
		}
	case Compound:
		if p.Damage > 0 {
			effects = append(effects, Damage{Base: p.Damage, Physical: p.Physical, AllowSelf: p.CanTargetSelf})
		}
		if p.HealAmount > 0 {
			effects = append(effects, OnUser(Healing{Amount: p.HealAmount}))
		}
		if p.PositionChange != 0 {
			effects = append(effects, OnUser(Shift{Delta: p.PositionChange}))
		}
		for _, m := range mods {
			mod := StatModifier{Stat: m.Stat, Delta: m.Delta, Duration: duration}
			if m.Delta > 0 {
				effects = append(effects, OnUser(mod))
			} else {
				effects = append(effects, mod)
			}
		}
	}
	return effects
}

// movementDiagnostic explains why a movement would be refused.
func (a *Action) movementDiagnostic(user, target *donburi.Entry, bf *battlefield.Battlefield) error {
	if bf == nil || a.params.PositionChange == 0 {
		return nil
	}
	var subject *donburi.Entry
	switch a.typ {
	case Movement:
		subject = target
	case Compound:
		subject = user
	default:
		return nil
	}
	if !model.HasPosition(subject) {
		return nil
	}
	dest := model.PositionOf(subject).Slot + a.params.PositionChange
	err := bf.CheckMove(subject, dest)
	switch {
	case errors.Is(err, battlefield.ErrInvalidPosition):
		return fmt.Errorf("%w (slot %d)", ErrDestinationOutOfBounds, dest)
	case errors.Is(err, battlefield.ErrOccupied):
		return fmt.Errorf("%w by %s (slot %d)", ErrDestinationOccupied, model.NameOf(bf.EntityAt(dest)), dest)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

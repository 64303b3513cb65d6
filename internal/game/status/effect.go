package status

import (
	"fmt"
	"log/slog"

	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

// Effect is a timed condition attached to a combatant.
//
// Hooks run in a fixed order during the owner's turn: OnTurnStart,
// then OnNewTurn (veto), then the chosen action, then OnTurnEnd.
type Effect interface {
	Name() string
	Kind() Kind
	Description() string
	// Duration is the number of owner turns left.
	Duration() int
	Expired() bool

	OnTurnStart(owner *donburi.Entry, r rnd.Source)
	OnTurnEnd(owner *donburi.Entry)
	// OnNewTurn reports whether the owner may act this turn.
	OnNewTurn(owner *donburi.Entry) bool
}

// timed carries the state shared by every built-in effect.
type timed struct {
	kind        Kind
	name        string
	description string
	duration    int
}

func (t *timed) Name() string        { return t.name }
func (t *timed) Kind() Kind          { return t.kind }
func (t *timed) Description() string { return t.description }
func (t *timed) Duration() int       { return t.duration }
func (t *timed) Expired() bool       { return t.duration <= 0 }

func (t *timed) OnNewTurn(*donburi.Entry) bool { return true }

// OnTurnEnd counts down one turn.
func (t *timed) OnTurnEnd(*donburi.Entry) {
	if t.duration > 0 {
		t.duration--
	}
}

// PoisonEffect deals damage at the start of each owner turn.
// Poison never kills: damage is capped so at least 1 health remains.
type PoisonEffect struct {
	timed
	damagePerTurn int
}

// NewPoison creates a poison lasting duration turns.
func NewPoison(duration, damagePerTurn int) *PoisonEffect {
	return &PoisonEffect{
		timed: timed{
			kind:        Poison,
			name:        "Poison",
			description: fmt.Sprintf("Deals %d damage per turn.", damagePerTurn),
			duration:    duration,
		},
		damagePerTurn: damagePerTurn,
	}
}

// DamagePerTurn returns the configured tick damage.
func (p *PoisonEffect) DamagePerTurn() int { return p.damagePerTurn }

func (p *PoisonEffect) OnTurnStart(owner *donburi.Entry, r rnd.Source) {
	if !model.HasStats(owner) {
		return
	}
	stats := model.StatsOf(owner)

	damage := min(stats.CurrentHealth()-1, p.damagePerTurn)
	if damage <= 0 {
		slog.Debug("poison tick prevented", "target", model.NameOf(owner))
		return
	}

	// Routed through TakeDamage, so a block roll can negate the tick.
	stats.TakeDamage(damage, r)

	slog.Debug("poison tick",
		"damage", damage,
		"health", stats.CurrentHealth(),
		"target", model.NameOf(owner))
}

// StunEffect prevents the owner from acting while it lasts.
type StunEffect struct {
	timed
}

// NewStun creates a stun lasting duration turns.
func NewStun(duration int) *StunEffect {
	return &StunEffect{
		timed: timed{
			kind:        Stun,
			name:        "Stun",
			description: fmt.Sprintf("Cannot take actions for %d turns.", duration),
			duration:    duration,
		},
	}
}

func (s *StunEffect) OnTurnStart(owner *donburi.Entry, _ rnd.Source) {
	slog.Debug("stunned", "target", model.NameOf(owner))
}

func (s *StunEffect) OnNewTurn(*donburi.Entry) bool { return false }

// StatBuffEffect adds a stat modifier to the owner on its first turn
// start. The modifier then expires on its own schedule in model.Stats.
type StatBuffEffect struct {
	timed
	stat    model.StatType
	delta   int
	applied bool
}

// NewStatBuff creates a Buff (delta > 0) or Debuff (delta <= 0) named
// after the stat and delta, e.g. "+3 Strength" or "-2 Speed".
func NewStatBuff(duration int, stat model.StatType, delta int) *StatBuffEffect {
	kind := Debuff
	sign := ""
	if delta > 0 {
		kind = Buff
		sign = "+"
	}
	return &StatBuffEffect{
		timed: timed{
			kind:        kind,
			name:        fmt.Sprintf("%s%d %s", sign, delta, stat),
			description: fmt.Sprintf("Modifies %s by %d for %d turns.", stat, delta, duration),
			duration:    duration,
		},
		stat:  stat,
		delta: delta,
	}
}

// Stat returns the modified stat.
func (b *StatBuffEffect) Stat() model.StatType { return b.stat }

// Delta returns the modifier value.
func (b *StatBuffEffect) Delta() int { return b.delta }

// Applied reports whether the modifier has been handed to the owner.
func (b *StatBuffEffect) Applied() bool { return b.applied }

func (b *StatBuffEffect) OnTurnStart(owner *donburi.Entry, _ rnd.Source) {
	if b.applied || !model.HasStats(owner) {
		return
	}
	model.StatsOf(owner).AddModifier(b.stat, b.delta, b.duration)
	b.applied = true

	slog.Debug("stat buff applied",
		"stat", b.stat,
		"delta", b.delta,
		"duration", b.duration,
		"target", model.NameOf(owner))
}

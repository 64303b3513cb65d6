package model

import (
	"github.com/udisondev/skirmish/internal/rnd"
)

const (
	baseHealth        = 10
	healthPerCon      = 5
	maxDodgeChance    = 40
	maxBlockChance    = 50
	maxCriticalChance = 30
	dodgePerDex       = 2
	blockPerDef       = 3
	criticalPerLuck   = 2
	permanentDuration = -1
)

// Modifier is a timed additive delta on one stat.
// Duration < 0 means permanent; otherwise it counts remaining turns.
type Modifier struct {
	Delta    int
	Duration int
}

// IsPermanent reports whether the modifier never expires.
func (m Modifier) IsPermanent() bool {
	return m.Duration < 0
}

// Stats owns the base attributes, timed modifiers and health of a combatant.
//
// Current value of a stat = base + sum of active modifier deltas.
// Max health is derived from current Constitution; whenever it changes the
// current health is rescaled to keep the same health fraction.
//
// Not thread-safe: combat resolution is turn-synchronous.
type Stats struct {
	base      [statCount]int
	modifiers [statCount][]Modifier

	maxHealth     int
	currentHealth int
}

// NewStats creates Stats with the given base values at full health.
func NewStats(str, intel, spd, dex, con, def, lck int) Stats {
	var s Stats
	s.Initialize(str, intel, spd, dex, con, def, lck)
	return s
}

// Initialize sets all seven base stats and restores health to full.
func (s *Stats) Initialize(str, intel, spd, dex, con, def, lck int) {
	s.base = [statCount]int{str, intel, spd, dex, con, def, lck}
	s.recalculate()
	s.currentHealth = s.maxHealth
}

// BaseStat returns the unmodified value of a stat.
func (s *Stats) BaseStat(t StatType) int {
	if t >= statCount {
		return 0
	}
	return s.base[t]
}

// SetBaseStat overwrites a base value and recomputes derived stats.
func (s *Stats) SetBaseStat(t StatType, value int) {
	if t >= statCount {
		return
	}
	s.base[t] = value
	s.recalculate()
}

// CurrentStat returns base plus all active modifier deltas.
func (s *Stats) CurrentStat(t StatType) int {
	if t >= statCount {
		return 0
	}
	v := s.base[t]
	for _, m := range s.modifiers[t] {
		v += m.Delta
	}
	return v
}

// Modifiers returns a copy of the active modifiers of a stat.
func (s *Stats) Modifiers(t StatType) []Modifier {
	if t >= statCount {
		return nil
	}
	out := make([]Modifier, len(s.modifiers[t]))
	copy(out, s.modifiers[t])
	return out
}

// AddModifier appends a timed modifier. Duration < 0 makes it permanent.
func (s *Stats) AddModifier(t StatType, delta, duration int) {
	if t >= statCount {
		return
	}
	s.modifiers[t] = append(s.modifiers[t], Modifier{Delta: delta, Duration: duration})
	s.recalculate()
}

// AddPermanentModifier appends a modifier that never expires.
func (s *Stats) AddPermanentModifier(t StatType, delta int) {
	s.AddModifier(t, delta, permanentDuration)
}

// ClearModifiers drops every modifier on every stat.
func (s *Stats) ClearModifiers() {
	for i := range s.modifiers {
		s.modifiers[i] = nil
	}
	s.recalculate()
}

// UpdateModifiers advances all finite modifiers by one turn and removes the
// ones that reach zero. Called once per processed turn of the owner.
func (s *Stats) UpdateModifiers() {
	changed := false
	for t := range s.modifiers {
		mods := s.modifiers[t]
		n := 0
		for _, m := range mods {
			if !m.IsPermanent() {
				m.Duration--
				if m.Duration <= 0 {
					changed = true
					continue
				}
			}
			mods[n] = m
			n++
		}
		s.modifiers[t] = mods[:n]
	}
	if changed {
		s.recalculate()
	}
}

// MaxHealth returns 10 + 5 * current Constitution.
func (s *Stats) MaxHealth() int {
	return s.maxHealth
}

// CurrentHealth returns the current health in [0, MaxHealth].
func (s *Stats) CurrentHealth() int {
	return s.currentHealth
}

// SetCurrentHealth sets health, clamped to [0, MaxHealth].
func (s *Stats) SetCurrentHealth(hp int) {
	s.currentHealth = clamp(hp, 0, s.maxHealth)
}

// HealthPercentage returns current/max in [0, 1].
func (s *Stats) HealthPercentage() float64 {
	if s.maxHealth <= 0 {
		return 0
	}
	return float64(s.currentHealth) / float64(s.maxHealth)
}

// IsFullHealth reports whether current health equals max health.
func (s *Stats) IsFullHealth() bool {
	return s.currentHealth >= s.maxHealth
}

// IsDead reports whether health is at or below zero.
func (s *Stats) IsDead() bool {
	return s.currentHealth <= 0
}

// Heal raises health by amount, capped at max health.
func (s *Stats) Heal(amount int) {
	if amount <= 0 {
		return
	}
	s.currentHealth = min(s.currentHealth+amount, s.maxHealth)
}

// TakeDamage rolls the block chance first: a block negates the hit entirely
// and reports "not dead" without touching health. Otherwise health drops
// by amount (floored at 0) and the result reports whether the owner died.
func (s *Stats) TakeDamage(amount int, r rnd.Source) bool {
	if s.Blocks(r) {
		return false
	}
	s.ReduceCurrentHealth(amount)
	return s.IsDead()
}

// Blocks rolls the block chance without applying damage.
func (s *Stats) Blocks(r rnd.Source) bool {
	chance := s.BlockChance()
	return chance > 0 && r.IntN(100) < chance
}

// ReduceCurrentHealth subtracts health with no block roll, floored at 0.
func (s *Stats) ReduceCurrentHealth(amount int) {
	if amount <= 0 {
		return
	}
	s.currentHealth = max(0, s.currentHealth-amount)
}

// PhysicalDamage returns base + STR/2.
func (s *Stats) PhysicalDamage(base int) int {
	return base + s.CurrentStat(Strength)/2
}

// MagicalDamage returns base + INT/2.
func (s *Stats) MagicalDamage(base int) int {
	return base + s.CurrentStat(Intellect)/2
}

// CalculateDamage is the generic weapon formula: base + 0.5*STR + 0.3*DEX.
func (s *Stats) CalculateDamage(base int) int {
	return int(float64(base) + float64(s.CurrentStat(Strength))*0.5 + float64(s.CurrentStat(Dexterity))*0.3)
}

// DodgeChance returns min(40, 2*DEX).
func (s *Stats) DodgeChance() int {
	return min(maxDodgeChance, s.CurrentStat(Dexterity)*dodgePerDex)
}

// BlockChance returns min(50, 3*DEF).
func (s *Stats) BlockChance() int {
	return min(maxBlockChance, s.CurrentStat(Defense)*blockPerDef)
}

// CriticalChance returns min(30, 2*LCK).
func (s *Stats) CriticalChance() int {
	return min(maxCriticalChance, s.CurrentStat(Luck)*criticalPerLuck)
}

func (s *Stats) calculateMaxHealth() int {
	return baseHealth + s.CurrentStat(Constitution)*healthPerCon
}

// recalculate refreshes max health and rescales current health to keep
// the same fraction when max health changes.
func (s *Stats) recalculate() {
	oldMax := s.maxHealth
	s.maxHealth = s.calculateMaxHealth()

	if oldMax > 0 && s.maxHealth != oldMax {
		ratio := float64(s.currentHealth) / float64(oldMax)
		s.currentHealth = int(float64(s.maxHealth) * ratio)
	}
	if s.currentHealth > s.maxHealth {
		s.currentHealth = s.maxHealth
	}
	if s.currentHealth < 0 {
		s.currentHealth = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

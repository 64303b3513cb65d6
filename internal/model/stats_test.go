package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/skirmish/internal/rnd"
)

func TestStats_Initialize(t *testing.T) {
	s := NewStats(10, 8, 12, 6, 4, 2, 5)

	assert.Equal(t, 10+5*4, s.MaxHealth())
	assert.Equal(t, s.MaxHealth(), s.CurrentHealth())
	assert.Equal(t, 12, s.CurrentStat(Speed))
	assert.False(t, s.IsDead())
}

func TestStats_DerivedNumbers(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		dodge int
		block int
		crit  int
	}{
		{"zero", NewStats(0, 0, 0, 0, 0, 0, 0), 0, 0, 0},
		{"mid", NewStats(0, 0, 0, 10, 0, 10, 10), 20, 30, 20},
		{"capped", NewStats(0, 0, 0, 50, 0, 50, 50), 40, 50, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dodge, tt.stats.DodgeChance())
			assert.Equal(t, tt.block, tt.stats.BlockChance())
			assert.Equal(t, tt.crit, tt.stats.CriticalChance())
		})
	}
}

func TestStats_DamageFormulas(t *testing.T) {
	s := NewStats(21, 9, 0, 10, 0, 0, 0)

	assert.Equal(t, 10+10, s.PhysicalDamage(10), "STR/2 rounds down")
	assert.Equal(t, 10+4, s.MagicalDamage(10), "INT/2 rounds down")
	assert.Equal(t, 23, s.CalculateDamage(10), "10 + 10.5 + 3.0 truncated")
}

func TestStats_CurrentStatSumsModifiers(t *testing.T) {
	s := NewStats(10, 0, 0, 0, 0, 0, 0)
	s.AddModifier(Strength, 5, 2)
	s.AddModifier(Strength, -3, -1)

	assert.Equal(t, 10, s.BaseStat(Strength))
	assert.Equal(t, 12, s.CurrentStat(Strength))
	assert.Len(t, s.Modifiers(Strength), 2)
}

func TestStats_UpdateModifiers_ExpiresFinite(t *testing.T) {
	s := NewStats(10, 0, 0, 0, 0, 0, 0)
	s.AddModifier(Strength, 4, 2)
	s.AddPermanentModifier(Strength, 1)

	s.UpdateModifiers()
	assert.Equal(t, 15, s.CurrentStat(Strength), "one turn left")

	s.UpdateModifiers()
	assert.Equal(t, 11, s.CurrentStat(Strength), "finite modifier removed, permanent kept")

	for range 10 {
		s.UpdateModifiers()
	}
	assert.Equal(t, 11, s.CurrentStat(Strength))
}

func TestStats_ConstitutionModifierRescalesHealth(t *testing.T) {
	s := NewStats(0, 0, 0, 0, 10, 0, 0) // max 60
	s.SetCurrentHealth(30)
	before := s.HealthPercentage()

	s.AddModifier(Constitution, 2, 3) // max 70
	require.Equal(t, 70, s.MaxHealth())
	assert.Equal(t, 35, s.CurrentHealth())

	for range 3 {
		s.UpdateModifiers()
	}

	assert.Equal(t, 60, s.MaxHealth())
	assert.Equal(t, 30, s.CurrentHealth())
	assert.InDelta(t, before, s.HealthPercentage(), 0.02)
}

func TestStats_TakeDamage_FloorsAtZero(t *testing.T) {
	s := NewStats(0, 0, 0, 0, 2, 0, 0) // max 20, block 0

	dead := s.TakeDamage(500, rnd.Always())

	assert.True(t, dead)
	assert.Equal(t, 0, s.CurrentHealth())
	assert.True(t, s.IsDead())
}

func TestStats_TakeDamage_BlockNegates(t *testing.T) {
	s := NewStats(0, 0, 0, 0, 2, 10, 0) // block 30%

	dead := s.TakeDamage(15, rnd.Always())

	assert.False(t, dead)
	assert.Equal(t, s.MaxHealth(), s.CurrentHealth())
}

func TestStats_TakeDamage_BlockMisses(t *testing.T) {
	s := NewStats(0, 0, 0, 0, 2, 10, 0)

	dead := s.TakeDamage(15, rnd.Never())

	assert.False(t, dead)
	assert.Equal(t, 5, s.CurrentHealth())
}

func TestStats_Heal_CapsAtMax(t *testing.T) {
	s := NewStats(0, 0, 0, 0, 2, 0, 0)
	s.SetCurrentHealth(5)

	s.Heal(3)
	assert.Equal(t, 8, s.CurrentHealth())

	s.Heal(100)
	assert.Equal(t, 20, s.CurrentHealth())
	assert.True(t, s.IsFullHealth())
}

func TestStats_SetCurrentHealth_Clamps(t *testing.T) {
	s := NewStats(0, 0, 0, 0, 2, 0, 0)

	s.SetCurrentHealth(-4)
	assert.Equal(t, 0, s.CurrentHealth())

	s.SetCurrentHealth(99)
	assert.Equal(t, 20, s.CurrentHealth())
}

func TestStats_ClearModifiers(t *testing.T) {
	s := NewStats(0, 0, 5, 0, 0, 0, 0)
	s.AddModifier(Speed, 3, -1)
	s.ClearModifiers()

	assert.Equal(t, 5, s.CurrentStat(Speed))
}

func TestParseStatType(t *testing.T) {
	for _, st := range StatTypes {
		got, err := ParseStatType(st.Key())
		require.NoError(t, err)
		assert.Equal(t, st, got)

		got, err = ParseStatType(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseStatType("CHARISMA")
	assert.Error(t, err)
}

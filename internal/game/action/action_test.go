package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/event"
	"github.com/udisondev/skirmish/internal/game/battlefield"
	"github.com/udisondev/skirmish/internal/game/status"
	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

// fighter spawns a combatant with CON 10 (60 health) and no block.
func fighter(w donburi.World, name string, str, lck int) *donburi.Entry {
	return model.Spawn(w, name, model.NewStats(str, 0, 5, 0, 10, 0, lck), status.Component)
}

func attack(damage int) *Action {
	a := New("strike", "Strike", Attack)
	a.SetParams(Params{Damage: damage, Physical: true})
	return a
}

func TestDamage_ScenarioA_NoCrit(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "Attacker", 20, 0)
	target := fighter(w, "Target", 0, 0)

	out, err := attack(10).Execute(user, target, Scene{Rand: rnd.Never()})

	require.NoError(t, err)
	assert.Equal(t, 20, out.Damage)
	assert.False(t, out.Critical)
	assert.Equal(t, 40, model.StatsOf(target).CurrentHealth())
}

func TestDamage_ScenarioB_Crit(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "Attacker", 20, 5) // 10% crit
	target := fighter(w, "Target", 0, 0)

	out, err := attack(10).Execute(user, target, Scene{Rand: rnd.Always()})

	require.NoError(t, err)
	assert.True(t, out.Critical)
	assert.Equal(t, 40, out.Damage)
	assert.Equal(t, 20, model.StatsOf(target).CurrentHealth())
}

func TestDamage_Magical(t *testing.T) {
	w := donburi.NewWorld()
	user := model.Spawn(w, "Mage", model.NewStats(0, 9, 0, 0, 1, 0, 0))
	target := fighter(w, "Target", 0, 0)

	ok := Damage{Base: 6}.Execute(user, target, Scene{Rand: rnd.Never()})

	assert.True(t, ok)
	assert.Equal(t, 60-(6+4), model.StatsOf(target).CurrentHealth())
}

func TestDamage_Blocked(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "Attacker", 20, 0)
	target := model.Spawn(w, "Wall", model.NewStats(0, 0, 0, 0, 10, 10, 0))

	out, err := attack(10).Execute(user, target, Scene{Rand: rnd.Always()})

	require.NoError(t, err)
	assert.True(t, out.Blocked)
	assert.Zero(t, out.Damage)
	assert.True(t, model.StatsOf(target).IsFullHealth())
}

func TestHealing_ScenarioC_FullHealth(t *testing.T) {
	w := donburi.NewWorld()
	healer := fighter(w, "Healer", 0, 0)
	ally := fighter(w, "Ally", 0, 0)

	heal := New("heal", "Heal", Heal)
	heal.SetCooldown(2)
	heal.SetParams(Params{HealAmount: 5})

	assert.False(t, Healing{Amount: 5}.CanApply(healer, ally, nil))

	_, err := heal.Execute(healer, ally, Scene{Rand: rnd.Never()})

	assert.ErrorIs(t, err, ErrNoApplicableEffect)
	assert.True(t, model.StatsOf(ally).IsFullHealth())
	assert.False(t, heal.IsOnCooldown(), "nothing executed, no cooldown")
}

func TestHealing_CanApplyIffNotFull(t *testing.T) {
	w := donburi.NewWorld()
	e := fighter(w, "E", 0, 0)
	stats := model.StatsOf(e)

	for hp := 0; hp <= stats.MaxHealth(); hp += 10 {
		stats.SetCurrentHealth(hp)
		assert.Equal(t, hp != stats.MaxHealth(), Healing{Amount: 1}.CanApply(e, e, nil), "hp=%d", hp)
	}
}

func TestMovement_ScenarioD_OutOfBounds(t *testing.T) {
	w := donburi.NewWorld()
	bf := battlefield.New(8)
	runner := fighter(w, "Runner", 0, 0)
	require.NoError(t, bf.PlaceEntity(runner, 6))

	move := New("advance", "Advance", Movement)
	move.SetParams(Params{PositionChange: 3})

	assert.False(t, Shift{Delta: 3}.CanApply(runner, runner, bf))

	_, err := move.Execute(runner, runner, Scene{Battlefield: bf, Rand: rnd.Never()})

	assert.ErrorIs(t, err, ErrNoApplicableEffect)
	assert.ErrorIs(t, err, ErrDestinationOutOfBounds)
	assert.True(t, model.Same(runner, bf.EntityAt(6)))
	assert.Equal(t, 6, model.PositionOf(runner).Slot)
}

func TestMovement_Occupied(t *testing.T) {
	w := donburi.NewWorld()
	bf := battlefield.New(8)
	runner := fighter(w, "Runner", 0, 0)
	wall := fighter(w, "Wall", 0, 0)
	require.NoError(t, bf.PlaceEntity(runner, 1))
	require.NoError(t, bf.PlaceEntity(wall, 2))

	move := New("advance", "Advance", Movement)
	move.SetParams(Params{PositionChange: 1})

	_, err := move.Execute(runner, runner, Scene{Battlefield: bf, Rand: rnd.Never()})
	assert.ErrorIs(t, err, ErrDestinationOccupied)

	move.SetParams(Params{PositionChange: -1})
	out, err := move.Execute(runner, runner, Scene{Battlefield: bf, Rand: rnd.Never()})
	require.NoError(t, err)
	assert.True(t, out.Moved)
	assert.Equal(t, 0, model.PositionOf(runner).Slot)
}

func TestShift_CanApplyMatchesBattlefield(t *testing.T) {
	w := donburi.NewWorld()
	bf := battlefield.New(8)
	e := fighter(w, "E", 0, 0)
	other := fighter(w, "O", 0, 0)
	require.NoError(t, bf.PlaceEntity(e, 3))
	require.NoError(t, bf.PlaceEntity(other, 5))

	for delta := -5; delta <= 5; delta++ {
		dest := 3 + delta
		want := dest >= 0 && dest < 8 && !bf.IsPositionOccupied(dest)
		assert.Equal(t, want, Shift{Delta: delta}.CanApply(e, e, bf), "delta=%d", delta)
	}
}

func TestExecute_MissStartsCooldown(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "Attacker", 20, 0)
	target := fighter(w, "Target", 0, 0)
	a := attack(10)
	a.SetAccuracy(50)
	a.SetCooldown(2)

	out, err := a.Execute(user, target, Scene{Rand: rnd.Never()})

	require.NoError(t, err)
	assert.True(t, out.Missed)
	assert.Zero(t, out.Executed)
	assert.True(t, a.IsOnCooldown())
	assert.True(t, model.StatsOf(target).IsFullHealth())
}

func TestExecute_NothingApplied(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "A", 0, 0)
	target := fighter(w, "B", 0, 0)
	a := attack(0)
	a.SetCooldown(2)

	_, err := a.Execute(user, target, Scene{Rand: rnd.Never()})

	assert.ErrorIs(t, err, ErrNothingApplied)
	assert.False(t, a.IsOnCooldown())
}

func TestCooldown_RoundTrip(t *testing.T) {
	a := attack(1)
	a.SetCooldown(3)
	a.StartCooldown()
	require.True(t, a.IsOnCooldown())

	for range 3 {
		a.DecreaseCooldown()
	}
	assert.False(t, a.IsOnCooldown())

	a.DecreaseCooldown()
	assert.Zero(t, a.CurrentCooldown())
}

func TestCanUse_Rules(t *testing.T) {
	w := donburi.NewWorld()
	bf := battlefield.New(8)
	user := fighter(w, "User", 10, 0)
	near := fighter(w, "Near", 0, 0)
	far := fighter(w, "Far", 0, 0)
	unplaced := fighter(w, "Unplaced", 0, 0)
	bare := w.Entry(w.Create(model.IdentityComponent))
	require.NoError(t, bf.PlaceEntity(user, 3))
	require.NoError(t, bf.PlaceEntity(near, 4))
	require.NoError(t, bf.PlaceEntity(far, 7))

	strike := attack(5)
	assert.NoError(t, strike.CanUse(user, near, bf))
	assert.ErrorIs(t, strike.CanUse(user, far, bf), ErrOutOfRange)
	assert.NoError(t, strike.CanUse(user, far, nil), "no battlefield, no range check")
	assert.ErrorIs(t, strike.CanUse(user, unplaced, bf), ErrMissingPosition)
	assert.ErrorIs(t, strike.CanUse(user, bare, nil), ErrMissingStats)
	assert.ErrorIs(t, strike.CanUse(user, nil, nil), ErrNoTarget)
	assert.ErrorIs(t, strike.CanUse(user, user, bf), ErrSelfTarget)

	reckless := New("reckless", "Reckless", Attack)
	reckless.SetParams(Params{Damage: 5, CanTargetSelf: true})
	assert.NoError(t, reckless.CanUse(user, user, bf))

	model.StatsOf(near).SetCurrentHealth(10)
	mend := New("mend", "Mend", Heal)
	mend.SetParams(Params{HealAmount: 5, SelfOnly: true})
	assert.ErrorIs(t, mend.CanUse(user, near, bf), ErrSelfOnly)

	strike.SetCooldown(1)
	strike.StartCooldown()
	assert.ErrorIs(t, strike.CanUse(user, near, bf), ErrOnCooldown)
	assert.False(t, strike.Usable(user, near, bf))
}

func TestCompound_LifeDrainOrder(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "Vampire", 10, 0)
	target := fighter(w, "Victim", 0, 0)
	model.StatsOf(user).SetCurrentHealth(10)

	drain := New("life_drain", "Life Drain", Compound)
	drain.SetParams(Params{
		Damage:     5,
		Physical:   true,
		HealAmount: 4,
		Hostile:    true,
		Modifiers: []StatDelta{
			{Stat: model.Defense, Delta: -1},
			{Stat: model.Strength, Delta: 2},
		},
	})

	effects := drain.Effects()
	require.Len(t, effects, 4)
	assert.IsType(t, Damage{}, effects[0])
	assert.Equal(t, Healing{Amount: 4}, effects[1].(userSubject).Unwrap())
	assert.Equal(t, model.Strength, effects[2].(userSubject).Unwrap().(StatModifier).Stat)
	assert.Equal(t, model.Defense, effects[3].(StatModifier).Stat)

	out, err := drain.Execute(user, target, Scene{Rand: rnd.Never()})
	require.NoError(t, err)

	assert.Equal(t, 4, out.Executed)
	assert.Equal(t, 60-10, model.StatsOf(target).CurrentHealth())
	assert.Equal(t, 14, model.StatsOf(user).CurrentHealth())
	assert.Equal(t, 12, model.StatsOf(user).CurrentStat(model.Strength))
	assert.Equal(t, -1, model.StatsOf(target).CurrentStat(model.Defense))
	assert.True(t, drain.TargetsOpponents())
}

func TestCompound_ChargeMovesUser(t *testing.T) {
	w := donburi.NewWorld()
	bf := battlefield.New(8)
	user := fighter(w, "Knight", 10, 0)
	target := fighter(w, "Orc", 0, 0)
	require.NoError(t, bf.PlaceEntity(user, 2))
	require.NoError(t, bf.PlaceEntity(target, 4))

	charge := New("charge", "Charge", Compound)
	charge.SetRange(2)
	charge.SetParams(Params{Damage: 3, Physical: true, PositionChange: 1, Hostile: true})

	out, err := charge.Execute(user, target, Scene{Battlefield: bf, Rand: rnd.Never()})

	require.NoError(t, err)
	assert.True(t, out.Moved)
	assert.Equal(t, 3, model.PositionOf(user).Slot)
	assert.Equal(t, 4, model.PositionOf(target).Slot)
	assert.Equal(t, 60-8, model.StatsOf(target).CurrentHealth())
}

func TestBuff_DefaultDuration(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "User", 0, 0)

	focus := New("focus", "Focus", Buff)
	focus.SetParams(Params{Modifiers: []StatDelta{{Stat: model.Dexterity, Delta: 2}}})
	require.True(t, focus.IsSelfTargeted())

	_, err := focus.Execute(user, user, Scene{Rand: rnd.Never()})
	require.NoError(t, err)

	mods := model.StatsOf(user).Modifiers(model.Dexterity)
	require.Len(t, mods, 1)
	assert.Equal(t, DefaultModifierDuration, mods[0].Duration)
}

func TestEffects_MaterializedOnce(t *testing.T) {
	a := attack(4)

	first := a.Effects()
	second := a.Effects()

	require.Len(t, first, 1)
	assert.True(t, &first[0] == &second[0])
}

func TestExplicitEffectsSkipParams(t *testing.T) {
	a := attack(4)
	a.AddEffect(StatModifier{Stat: model.Luck, Delta: -1, Duration: 2})

	effects := a.Effects()

	require.Len(t, effects, 1)
	assert.IsType(t, StatModifier{}, effects[0])
}

func TestSpecial_CallbackCountsAsExecuted(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "User", 0, 0)
	model.StatsOf(user).SetCurrentHealth(20)

	cb, err := LookupSpecial("second_wind")
	require.NoError(t, err)
	wind := New("second_wind", "Second Wind", Special)
	wind.SetParams(Params{SelfOnly: true})
	wind.SetCallback(cb)
	wind.SetCooldown(4)

	out, err := wind.Execute(user, user, Scene{Rand: rnd.Never()})

	require.NoError(t, err)
	assert.Equal(t, 1, out.Executed)
	assert.Equal(t, 15, out.Healed)
	assert.Equal(t, 35, model.StatsOf(user).CurrentHealth())
	assert.True(t, wind.IsOnCooldown())
}

func TestSpecial_VenomPoisonsTarget(t *testing.T) {
	w := donburi.NewWorld()
	user := fighter(w, "Snake", 0, 0)
	target := fighter(w, "Hero", 0, 0)

	cb, err := LookupSpecial("venom")
	require.NoError(t, err)
	venom := New("venom", "Venom", Special)
	venom.SetParams(Params{Hostile: true})
	venom.SetCallback(cb)

	bus := event.NewBus()
	rec := &event.Recorder{}
	bus.SubscribeAll(rec)

	_, err = venom.Execute(user, target, Scene{Rand: rnd.Never(), Bus: bus})
	require.NoError(t, err)

	assert.True(t, status.Of(target).Has(status.Poison))
	assert.Contains(t, rec.Messages(), "Snake afflicts Hero with Poison")

	_, err = LookupSpecial("nope")
	assert.Error(t, err)
	assert.Contains(t, Specials(), "concuss")
}

func TestLoadout(t *testing.T) {
	w := donburi.NewWorld()
	e := fighter(w, "E", 0, 0)
	strike := attack(1)
	strike.SetCooldown(2)
	guard := New("guard", "Guard", Buff)
	guard.SetCooldown(2)

	Equip(e, strike, guard)
	strike.StartCooldown()
	guard.StartCooldown()

	found, ok := Find(e, "guard")
	require.True(t, ok)
	assert.Same(t, guard, found)
	assert.True(t, Owns(e, strike))

	TickCooldowns(e, strike)
	assert.Equal(t, 2, strike.CurrentCooldown(), "used action is not ticked")
	assert.Equal(t, 1, guard.CurrentCooldown())

	TickCooldowns(e, nil)
	assert.Equal(t, []*Action{guard}, Ready(e))

	ResetCooldowns(e)
	assert.Len(t, Ready(e), 2)
	assert.Nil(t, LoadoutOf(nil))
}

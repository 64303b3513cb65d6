package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/model"
)

func spawn(w donburi.World, name string, speed int) *donburi.Entry {
	return model.Spawn(w, name, model.NewStats(0, 0, speed, 0, 1, 0, 0))
}

func names(entries []*donburi.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.NameOf(e))
	}
	return out
}

func kill(e *donburi.Entry) {
	model.StatsOf(e).SetCurrentHealth(0)
}

func TestInitialize_OrdersBySpeedWithStableTies(t *testing.T) {
	w := donburi.NewWorld()
	roster := []*donburi.Entry{
		spawn(w, "A", 5),
		spawn(w, "B", 12),
		spawn(w, "C", 8),
		spawn(w, "D", 12),
	}

	m := NewManager()
	m.Initialize(roster)

	assert.Equal(t, []string{"B", "D", "C", "A"}, names(m.Order()))
	assert.Equal(t, "B", model.NameOf(m.Current()))
	assert.Equal(t, 1, m.Round())
	assert.Equal(t, 3, m.QueueSize())

	prev := m.Queue()[0].Initiative
	for _, turn := range m.Queue() {
		assert.LessOrEqual(t, turn.Initiative, prev)
		prev = turn.Initiative
	}
}

func TestInitialize_SkipsDeadAndStatless(t *testing.T) {
	w := donburi.NewWorld()
	dead := spawn(w, "Dead", 20)
	kill(dead)
	prop := w.Entry(w.Create(model.IdentityComponent))
	alive := spawn(w, "Alive", 1)

	m := NewManager()
	m.Initialize([]*donburi.Entry{dead, prop, alive})

	assert.Equal(t, []string{"Alive"}, names(m.Order()))
	assert.Len(t, m.Roster(), 1)
}

func TestEndTurn_AdvancesRounds(t *testing.T) {
	w := donburi.NewWorld()
	a := spawn(w, "A", 10)
	b := spawn(w, "B", 5)

	m := NewManager()
	m.Initialize([]*donburi.Entry{b, a})
	require.True(t, model.Same(a, m.Current()))

	assert.True(t, model.Same(b, m.EndTurn()))
	assert.Equal(t, 1, m.Round())
	assert.Zero(t, m.QueueSize())

	assert.True(t, model.Same(a, m.EndTurn()))
	assert.Equal(t, 2, m.Round())
}

func TestEndTurn_SingleCombatantKeepsActing(t *testing.T) {
	w := donburi.NewWorld()
	solo := spawn(w, "Solo", 3)

	m := NewManager()
	m.Initialize([]*donburi.Entry{solo})

	for round := 2; round <= 4; round++ {
		assert.True(t, model.Same(solo, m.EndTurn()))
		assert.Equal(t, round, m.Round())
	}
}

func TestEndTurn_DeathDuringOwnTurn(t *testing.T) {
	w := donburi.NewWorld()
	a := spawn(w, "A", 10)
	b := spawn(w, "B", 5)
	c := spawn(w, "C", 1)

	m := NewManager()
	m.Initialize([]*donburi.Entry{a, b, c})
	kill(a)

	assert.Equal(t, "B", model.NameOf(m.EndTurn()))
	assert.False(t, model.Contains(m.Roster(), a))
	assert.Equal(t, "C", model.NameOf(m.EndTurn()))
	assert.Equal(t, "B", model.NameOf(m.EndTurn()))
	assert.Equal(t, 2, m.Round())
}

func TestEndTurn_SkipsEntitiesKilledOffTurn(t *testing.T) {
	w := donburi.NewWorld()
	a := spawn(w, "A", 10)
	b := spawn(w, "B", 5)
	c := spawn(w, "C", 1)

	m := NewManager()
	m.Initialize([]*donburi.Entry{a, b, c})
	kill(c)

	assert.Equal(t, "B", model.NameOf(m.EndTurn()))
	assert.Equal(t, "A", model.NameOf(m.EndTurn()), "dead C is skipped")
	assert.Equal(t, 2, m.Round())
	assert.Equal(t, []string{"A", "B"}, names(m.Order()))
}

func TestNextRound_RereadsSpeed(t *testing.T) {
	w := donburi.NewWorld()
	a := spawn(w, "A", 10)
	b := spawn(w, "B", 5)

	m := NewManager()
	m.Initialize([]*donburi.Entry{a, b})
	m.EndTurn()
	model.StatsOf(b).AddModifier(model.Speed, 10, 2)

	assert.Equal(t, "B", model.NameOf(m.EndTurn()))
	assert.Equal(t, []string{"B", "A"}, names(m.Order()))
}

func TestEndTurn_NobodyLeft(t *testing.T) {
	w := donburi.NewWorld()
	a := spawn(w, "A", 10)
	b := spawn(w, "B", 5)

	m := NewManager()
	m.Initialize([]*donburi.Entry{a, b})
	kill(a)
	kill(b)

	assert.Nil(t, m.EndTurn())
	assert.Nil(t, m.Current())
	assert.Nil(t, m.EndTurn())
}

func TestIsCombatOver(t *testing.T) {
	w := donburi.NewWorld()
	hero := spawn(w, "Hero", 1)
	orc := spawn(w, "Orc", 1)
	m := NewManager()

	assert.False(t, m.IsCombatOver([]*donburi.Entry{hero}, []*donburi.Entry{orc}))

	kill(orc)
	assert.True(t, m.IsCombatOver([]*donburi.Entry{hero}, []*donburi.Entry{orc}))
}

func TestReset(t *testing.T) {
	w := donburi.NewWorld()
	m := NewManager()
	m.Initialize([]*donburi.Entry{spawn(w, "A", 1), spawn(w, "B", 2)})

	m.Reset()

	assert.Nil(t, m.Current())
	assert.Zero(t, m.Round())
	assert.Zero(t, m.QueueSize())
	assert.Empty(t, m.Order())
	assert.Nil(t, m.Next())
}

package testutil

import (
	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/game/action"
	"github.com/udisondev/skirmish/internal/game/status"
	"github.com/udisondev/skirmish/internal/model"
)

// FighterStats is a CON 10 (60 HP) stat block with no dodge, block or
// crit chance, so damage numbers in tests are exact.
func FighterStats(speed int) model.Stats {
	return model.NewStats(0, 0, speed, 0, 10, 0, 0)
}

// Strike returns an unlimited-range magical attack dealing 10 + INT/2.
func Strike() *action.Action {
	a := action.New("strike", "Strike", action.Attack)
	a.SetRange(0)
	a.SetParams(action.Params{Damage: 10})
	return a
}

// Fighter spawns a combatant with FighterStats, a status container and
// the given actions, or a single Strike when none are given.
func Fighter(w donburi.World, name string, speed int, actions ...*action.Action) *donburi.Entry {
	e := model.Spawn(w, name, FighterStats(speed), status.Component)
	if len(actions) == 0 {
		actions = []*action.Action{Strike()}
	}
	action.Equip(e, actions...)
	return e
}

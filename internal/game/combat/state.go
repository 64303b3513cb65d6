package combat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/looplab/fsm"
)

// State is the phase of an encounter.
type State string

const (
	NotStarted      State = "not_started"
	SelectingAction State = "selecting_action"
	ExecutingAction State = "executing_action"
	EnemyTurn       State = "enemy_turn"
	Ended           State = "ended"
)

// Result is the outcome of an encounter.
type Result uint8

const (
	None Result = iota
	PlayerVictory
	PlayerDefeat
	Escape
)

func (r Result) String() string {
	switch r {
	case PlayerVictory:
		return "victory"
	case PlayerDefeat:
		return "defeat"
	case Escape:
		return "escape"
	default:
		return "none"
	}
}

// State machine events.
const (
	evPlayerTurn = "player_turn"
	evEnemyTurn  = "enemy_turn"
	evExecute    = "execute"
	evEnd        = "end"
	evReset      = "reset"
)

func newMachine() *fsm.FSM {
	active := []string{string(NotStarted), string(SelectingAction), string(ExecutingAction), string(EnemyTurn)}
	all := append(active, string(Ended))

	return fsm.NewFSM(
		string(NotStarted),
		fsm.Events{
			{Name: evPlayerTurn, Src: active, Dst: string(SelectingAction)},
			{Name: evEnemyTurn, Src: active, Dst: string(EnemyTurn)},
			{Name: evExecute, Src: []string{string(SelectingAction), string(EnemyTurn)}, Dst: string(ExecutingAction)},
			{Name: evEnd, Src: active, Dst: string(Ended)},
			{Name: evReset, Src: all, Dst: string(NotStarted)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				slog.Debug("combat state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
}

// fire triggers a state machine event. Staying in the same state is not
// an error.
func (s *System) fire(event string) {
	err := s.machine.Event(context.Background(), event)
	if err == nil {
		return
	}
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return
	}
	// Every call site is guarded by a state check; anything else is a bug.
	panic("combat: " + err.Error())
}

// Package combat orchestrates an encounter between two rosters: turn
// lifecycle, action resolution, AI turns, escape and the result.
package combat

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/looplab/fsm"
	"github.com/yohamta/donburi"

	"github.com/udisondev/skirmish/internal/ai"
	"github.com/udisondev/skirmish/internal/event"
	"github.com/udisondev/skirmish/internal/game/action"
	"github.com/udisondev/skirmish/internal/game/battlefield"
	"github.com/udisondev/skirmish/internal/game/status"
	"github.com/udisondev/skirmish/internal/game/turn"
	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

const (
	baseEscapeChance = 50
	escapePerSpeed   = 5
	minEscapeChance  = 10
	maxEscapeChance  = 90
)

var (
	ErrInvalidState   = errors.New("operation not allowed in current combat state")
	ErrNoActiveEntity = errors.New("no active entity")
	ErrNoAction       = errors.New("no action given")
	ErrNotYourTurn    = errors.New("not this entity's turn")
	ErrActionNotOwned = errors.New("action not in entity's loadout")
	ErrUnknownTarget  = errors.New("target is not part of this combat")
	ErrTargetDefeated = errors.New("target already defeated")
)

// System runs one encounter at a time. It is not safe for concurrent use.
type System struct {
	bf      *battlefield.Battlefield
	turns   *turn.Manager
	machine *fsm.FSM

	rand       rnd.Source
	bus        *event.Bus
	policy     ai.Policy
	allyPolicy ai.Policy

	allies     []*donburi.Entry
	enemies    []*donburi.Entry
	started    bool
	result     Result
	turnsTaken int
}

// Option configures a System.
type Option func(*System)

// WithRand sets the random source for every roll of the encounter.
func WithRand(r rnd.Source) Option {
	return func(s *System) { s.rand = r }
}

// WithBus sets the bus events and narration are published to.
func WithBus(b *event.Bus) Option {
	return func(s *System) { s.bus = b }
}

// WithPolicy sets the policy used for AI-controlled turns.
func WithPolicy(p ai.Policy) Option {
	return func(s *System) { s.policy = p }
}

// WithAllyPolicy sets a separate policy for auto turns of allies.
func WithAllyPolicy(p ai.Policy) Option {
	return func(s *System) { s.allyPolicy = p }
}

// WithBattlefieldSize sets the number of battlefield slots.
func WithBattlefieldSize(n int) Option {
	return func(s *System) { s.bf = battlefield.New(n) }
}

// New creates an idle System. Without options it uses a time-seeded
// random source, a fresh bus, RandomPolicy and an 8-slot battlefield.
func New(opts ...Option) *System {
	s := &System{
		bf:      battlefield.New(battlefield.DefaultSize),
		turns:   turn.NewManager(),
		machine: newMachine(),
		policy:  ai.RandomPolicy{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rnd.NewSeeded(0)
	}
	if s.bus == nil {
		s.bus = event.NewBus()
	}
	return s
}

// State returns the current phase.
func (s *System) State() State { return State(s.machine.Current()) }

// Result returns how the encounter ended, or None while it runs.
func (s *System) Result() Result { return s.result }

func (s *System) Battlefield() *battlefield.Battlefield { return s.bf }
func (s *System) TurnManager() *turn.Manager            { return s.turns }
func (s *System) Bus() *event.Bus                       { return s.bus }

// Current returns the active entity.
func (s *System) Current() *donburi.Entry { return s.turns.Current() }

// Allies returns the ally roster.
func (s *System) Allies() []*donburi.Entry { return slices.Clone(s.allies) }

// Enemies returns the enemy roster.
func (s *System) Enemies() []*donburi.Entry { return slices.Clone(s.enemies) }

// TurnsTaken returns the number of turns resolved so far.
func (s *System) TurnsTaken() int { return s.turnsTaken }

// IsAlly reports whether e belongs to the ally roster.
func (s *System) IsAlly(e *donburi.Entry) bool { return model.Contains(s.allies, e) }

// Reset abandons any encounter and clears all state.
func (s *System) Reset() {
	s.bf.Clear()
	s.turns.Reset()
	s.allies = nil
	s.enemies = nil
	s.started = false
	s.result = None
	s.turnsTaken = 0
	s.fire(evReset)
}

// StartCombat resets the system and begins a new encounter. Allies take
// slots [0, N/2) and enemies [N/2, N) in roster order; entities beyond a
// side's capacity do not take part.
func (s *System) StartCombat(allies, enemies []*donburi.Entry) error {
	s.Reset()

	half := s.bf.Size() / 2
	var err error
	if s.allies, err = s.deploy(allies, 0, half); err != nil {
		s.Reset()
		return fmt.Errorf("deploying allies: %w", err)
	}
	if s.enemies, err = s.deploy(enemies, half, s.bf.Size()); err != nil {
		s.Reset()
		return fmt.Errorf("deploying enemies: %w", err)
	}

	for _, e := range slices.Concat(s.allies, s.enemies) {
		action.ResetCooldowns(e)
	}
	s.turns.Initialize(slices.Concat(s.allies, s.enemies))
	s.started = true

	s.bus.Publish(event.Event{Type: event.CombatStarted, Round: s.turns.Round()})
	s.bus.Say("Combat started with %d allies and %d enemies", len(s.allies), len(s.enemies))
	slog.Debug("combat started", "allies", len(s.allies), "enemies", len(s.enemies))

	s.startTurn()
	return nil
}

func (s *System) deploy(roster []*donburi.Entry, from, to int) ([]*donburi.Entry, error) {
	var placed []*donburi.Entry
	for i, e := range roster {
		slot := from + i
		if slot >= to {
			slog.Warn("roster exceeds battlefield capacity", "dropped", model.NameOf(e))
			continue
		}
		if err := s.bf.PlaceEntity(e, slot); err != nil {
			return nil, err
		}
		placed = append(placed, e)
	}
	return placed, nil
}

// CheckCombatResult reports PlayerDefeat when every ally is dead,
// PlayerVictory when every enemy is dead, and None otherwise. Membership
// is by roster, whatever side of the battlefield a combatant stands on.
func (s *System) CheckCombatResult() Result {
	if !s.started {
		return None
	}
	switch {
	case model.AllDefeated(s.allies):
		return PlayerDefeat
	case model.AllDefeated(s.enemies):
		return PlayerVictory
	}
	return None
}

// ProcessTurn makes actor use act on target. Rule violations return an
// error and leave the turn with actor so another action can be tried.
// A hit or a miss consumes the turn.
func (s *System) ProcessTurn(actor *donburi.Entry, act *action.Action, target *donburi.Entry) (action.Outcome, error) {
	state := s.State()
	if state != SelectingAction && state != EnemyTurn {
		return action.Outcome{}, fmt.Errorf("processing turn in %s: %w", state, ErrInvalidState)
	}
	current := s.turns.Current()
	switch {
	case current == nil:
		return action.Outcome{}, ErrNoActiveEntity
	case act == nil:
		return action.Outcome{}, ErrNoAction
	case !model.Same(actor, current):
		return action.Outcome{}, fmt.Errorf("%s acting during %s's turn: %w",
			model.NameOf(actor), model.NameOf(current), ErrNotYourTurn)
	case action.LoadoutOf(actor) != nil && !action.Owns(actor, act):
		return action.Outcome{}, fmt.Errorf("%s using %s: %w", model.NameOf(actor), act.ID(), ErrActionNotOwned)
	case !s.isCombatant(target):
		return action.Outcome{}, fmt.Errorf("%s targeting %s: %w", model.NameOf(actor), model.NameOf(target), ErrUnknownTarget)
	case !model.IsAlive(target):
		return action.Outcome{}, fmt.Errorf("%s targeting %s: %w", model.NameOf(actor), model.NameOf(target), ErrTargetDefeated)
	}

	s.fire(evExecute)
	alive := s.living()

	out, err := act.Execute(actor, target, s.scene())
	if err != nil {
		s.machine.SetState(string(state))
		return out, err
	}

	if out.Missed {
		s.bus.Publish(event.Event{Type: event.ActionMissed, Actor: actor, Target: target, Action: act.ID(), Round: s.turns.Round()})
	}
	s.bus.Publish(event.Event{
		Type:    event.TurnResolved,
		Actor:   actor,
		Target:  target,
		Action:  act.ID(),
		Round:   s.turns.Round(),
		Success: !out.Missed,
	})
	for _, e := range alive {
		if !model.IsAlive(e) {
			s.bus.Publish(event.Event{Type: event.EntityDefeated, Actor: actor, Target: e, Round: s.turns.Round()})
		}
	}

	s.endTurn(actor, act)
	return out, nil
}

// ProcessEnemyTurn lets the AI policy act for the active enemy.
func (s *System) ProcessEnemyTurn() error {
	if s.State() != EnemyTurn {
		return fmt.Errorf("processing enemy turn in %s: %w", s.State(), ErrInvalidState)
	}
	return s.autoTurn()
}

// ProcessAutoTurn lets the AI policy act for the active entity,
// whichever roster it belongs to.
func (s *System) ProcessAutoTurn() error {
	if state := s.State(); state != SelectingAction && state != EnemyTurn {
		return fmt.Errorf("processing auto turn in %s: %w", state, ErrInvalidState)
	}
	return s.autoTurn()
}

func (s *System) autoTurn() error {
	actor := s.turns.Current()
	if actor == nil {
		return ErrNoActiveEntity
	}

	policy := s.policy
	if s.allyPolicy != nil && s.IsAlly(actor) {
		policy = s.allyPolicy
	}
	choice, ok := policy.Choose(actor, s.Options(), s.rand)
	if !ok {
		s.skipTurn(actor, "has nothing to do")
		return nil
	}
	if _, err := s.ProcessTurn(actor, choice.Action, choice.Target); err != nil {
		slog.Debug("ai choice rejected", "actor", model.NameOf(actor), "action", choice.Action.ID(), "err", err)
		s.skipTurn(actor, "hesitates")
	}
	return nil
}

// SkipTurn passes the active entity's turn.
func (s *System) SkipTurn() error {
	if state := s.State(); state != SelectingAction && state != EnemyTurn {
		return fmt.Errorf("skipping turn in %s: %w", state, ErrInvalidState)
	}
	actor := s.turns.Current()
	if actor == nil {
		return ErrNoActiveEntity
	}
	s.skipTurn(actor, "waits")
	return nil
}

// Options lists every (action, target) pair the active entity can use
// right now.
func (s *System) Options() []ai.Option {
	actor := s.turns.Current()
	if actor == nil {
		return nil
	}
	var out []ai.Option
	for _, act := range action.Ready(actor) {
		for _, target := range s.candidates(actor, act) {
			if act.Usable(actor, target, s.bf) {
				out = append(out, ai.Option{Action: act, Target: target})
			}
		}
	}
	return out
}

// AvailableActions returns the active entity's actions that are off
// cooldown.
func (s *System) AvailableActions() []*action.Action {
	actor := s.turns.Current()
	if actor == nil {
		return nil
	}
	return action.Ready(actor)
}

// ValidTargets lists the targets the active entity may use act on.
// Self-targeted actions offer only the active entity.
func (s *System) ValidTargets(act *action.Action) []*donburi.Entry {
	actor := s.turns.Current()
	if actor == nil || act == nil {
		return nil
	}
	if act.IsSelfTargeted() {
		return []*donburi.Entry{actor}
	}
	var out []*donburi.Entry
	for _, target := range s.candidates(actor, act) {
		if act.Usable(actor, target, s.bf) {
			out = append(out, target)
		}
	}
	return out
}

// candidates returns the living entities act may be aimed at, relative to
// the actor's own roster.
func (s *System) candidates(actor *donburi.Entry, act *action.Action) []*donburi.Entry {
	if act.IsSelfTargeted() {
		return []*donburi.Entry{actor}
	}
	own, opposing := s.allies, s.enemies
	if !s.IsAlly(actor) {
		own, opposing = s.enemies, s.allies
	}
	pool := own
	if act.TargetsOpponents() {
		pool = opposing
	}
	var out []*donburi.Entry
	for _, e := range pool {
		if model.IsAlive(e) {
			out = append(out, e)
		}
	}
	return out
}

// EscapeChance returns the escape percentage for the given average ally
// and enemy Speed.
func EscapeChance(allySpeed, enemySpeed int) int {
	chance := baseEscapeChance + escapePerSpeed*(allySpeed-enemySpeed)
	return max(minEscapeChance, min(maxEscapeChance, chance))
}

// TryEscape attempts to flee on an ally's turn. Success ends the
// encounter with Escape; failure costs the active entity its turn.
func (s *System) TryEscape() (bool, error) {
	if s.State() != SelectingAction {
		return false, fmt.Errorf("escaping in %s: %w", s.State(), ErrInvalidState)
	}
	actor := s.turns.Current()
	if actor == nil {
		return false, ErrNoActiveEntity
	}

	chance := EscapeChance(averageSpeed(s.allies), averageSpeed(s.enemies))
	roll := rnd.Roll100(s.rand)
	escaped := roll <= chance

	s.bus.Publish(event.Event{Type: event.EscapeAttempted, Actor: actor, Round: s.turns.Round(), Success: escaped})
	slog.Debug("escape attempt", "chance", chance, "roll", roll, "escaped", escaped)

	if escaped {
		s.bus.Say("Escaped! (chance %d%%, roll %d)", chance, roll)
		s.finish(Escape)
		return true, nil
	}
	s.bus.Say("Escape failed (chance %d%%, roll %d)", chance, roll)
	s.endTurn(actor, nil)
	return false, nil
}

func averageSpeed(roster []*donburi.Entry) int {
	total, n := 0, 0
	for _, e := range roster {
		if model.IsAlive(e) {
			total += model.StatsOf(e).CurrentStat(model.Speed)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / n
}

// startTurn runs the turn-start hooks of the active entity. Entities
// that are vetoed by a status effect lose their turn, and the next one
// starts, until someone can act or the encounter is over.
func (s *System) startTurn() {
	for {
		if r := s.CheckCombatResult(); r != None {
			s.finish(r)
			return
		}
		actor := s.turns.Current()
		if actor == nil {
			s.finish(PlayerDefeat)
			return
		}

		s.bus.Publish(event.Event{Type: event.TurnStarted, Actor: actor, Round: s.turns.Round()})

		if status.Has(actor) {
			fx := status.Of(actor)
			fx.ProcessTurnStart(actor, s.rand)
			if blocker := fx.Blocker(actor); blocker != nil {
				s.bus.Say("%s cannot act due to %s", model.NameOf(actor), blocker.Name())
				s.bus.Publish(event.Event{Type: event.TurnSkipped, Actor: actor, Round: s.turns.Round(), Text: blocker.Name()})
				s.closeTurn(actor, nil)
				continue
			}
		}
		if !model.IsAlive(actor) {
			s.closeTurn(actor, nil)
			continue
		}

		if s.IsAlly(actor) {
			s.fire(evPlayerTurn)
		} else {
			s.fire(evEnemyTurn)
		}
		return
	}
}

// skipTurn ends the active entity's turn without an action.
func (s *System) skipTurn(actor *donburi.Entry, reason string) {
	s.bus.Say("%s %s and skips the turn", model.NameOf(actor), reason)
	s.bus.Publish(event.Event{Type: event.TurnSkipped, Actor: actor, Round: s.turns.Round(), Text: reason})
	s.endTurn(actor, nil)
}

// endTurn closes the actor's turn and starts the next one.
func (s *System) endTurn(actor *donburi.Entry, used *action.Action) {
	s.closeTurn(actor, used)
	s.startTurn()
}

// closeTurn runs the end-of-turn bookkeeping and hands the turn on.
func (s *System) closeTurn(actor *donburi.Entry, used *action.Action) {
	if status.Has(actor) {
		status.Of(actor).ProcessTurnEnd(actor)
	}
	if model.HasStats(actor) {
		model.StatsOf(actor).UpdateModifiers()
	}
	action.TickCooldowns(actor, used)
	s.turnsTaken++
	s.turns.EndTurn()
}

func (s *System) finish(r Result) {
	s.result = r
	s.fire(evEnd)
	s.bus.Publish(event.Event{Type: event.CombatEnded, Round: s.turns.Round(), Text: r.String()})

	switch r {
	case PlayerVictory:
		s.bus.Say("Victory!")
	case PlayerDefeat:
		s.bus.Say("Defeat...")
	}
	slog.Debug("combat ended", "result", r, "round", s.turns.Round(), "turns", s.turnsTaken)
}

func (s *System) scene() action.Scene {
	return action.Scene{Battlefield: s.bf, Rand: s.rand, Bus: s.bus}
}

func (s *System) isCombatant(e *donburi.Entry) bool {
	return model.Contains(s.allies, e) || model.Contains(s.enemies, e)
}

func (s *System) living() []*donburi.Entry {
	var out []*donburi.Entry
	for _, e := range slices.Concat(s.allies, s.enemies) {
		if model.IsAlive(e) {
			out = append(out, e)
		}
	}
	return out
}

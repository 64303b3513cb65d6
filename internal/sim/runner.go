// Package sim runs batches of AI-versus-AI encounters for balance
// analysis.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/yohamta/donburi"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/skirmish/internal/ai"
	"github.com/udisondev/skirmish/internal/config"
	"github.com/udisondev/skirmish/internal/data"
	"github.com/udisondev/skirmish/internal/event"
	"github.com/udisondev/skirmish/internal/game/combat"
	"github.com/udisondev/skirmish/internal/model"
	"github.com/udisondev/skirmish/internal/rnd"
)

// Encounter is the outcome of one simulated combat. Result is None when
// the turn limit was reached first.
type Encounter struct {
	Index        int
	Seed         uint64
	Result       combat.Result
	Rounds       int
	Turns        int
	Enemies      int
	AlliesAlive  int
	EnemiesAlive int
}

// Report aggregates a batch in encounter index order.
type Report struct {
	Seed       uint64
	Encounters []Encounter
	Victories  int
	Defeats    int
	Escapes    int
	Draws      int
}

// AverageRounds returns the mean number of rounds per encounter.
func (r Report) AverageRounds() float64 {
	if len(r.Encounters) == 0 {
		return 0
	}
	total := 0
	for _, e := range r.Encounters {
		total += e.Rounds
	}
	return float64(total) / float64(len(r.Encounters))
}

// WinRate returns the share of encounters won by the party.
func (r Report) WinRate() float64 {
	if len(r.Encounters) == 0 {
		return 0
	}
	return float64(r.Victories) / float64(len(r.Encounters))
}

func (r *Report) add(e Encounter) {
	switch e.Result {
	case combat.PlayerVictory:
		r.Victories++
	case combat.PlayerDefeat:
		r.Defeats++
	case combat.Escape:
		r.Escapes++
	default:
		r.Draws++
	}
}

// Runner builds and plays encounters from a catalog and a config.
// It is safe for concurrent use: every encounter gets its own world,
// random source and actions.
type Runner struct {
	catalog     *data.Catalog
	cfg         config.Simulator
	allyPolicy  ai.Policy
	enemyPolicy ai.Policy
}

// NewRunner checks that the configured creatures and policies exist.
func NewRunner(catalog *data.Catalog, cfg config.Simulator) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulator config: %w", err)
	}
	for _, id := range slices.Concat(cfg.Party, cfg.EnemyPool) {
		if _, ok := catalog.CreatureDef(id); !ok {
			return nil, fmt.Errorf("%w: %s", data.ErrUnknownCreature, id)
		}
	}
	allyPolicy, ok := ai.ByName(cfg.AllyPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown ally policy %q", cfg.AllyPolicy)
	}
	enemyPolicy, ok := ai.ByName(cfg.EnemyPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown enemy policy %q", cfg.EnemyPolicy)
	}
	return &Runner{
		catalog:     catalog,
		cfg:         cfg,
		allyPolicy:  allyPolicy,
		enemyPolicy: enemyPolicy,
	}, nil
}

// EnemyCount returns how many enemies an encounter of the given
// difficulty fields.
func EnemyCount(difficulty int) int {
	return 1 + max(0, difficulty)/2
}

// Run plays encounter index with its own seeded random source.
func (r *Runner) Run(ctx context.Context, index int, seed uint64) (Encounter, error) {
	src := rnd.NewSeeded(seed)
	w := model.NewWorld()

	allies, err := r.spawnAll(w, r.cfg.Party)
	if err != nil {
		return Encounter{}, err
	}
	enemyIDs := make([]string, EnemyCount(r.cfg.Difficulty))
	for i := range enemyIDs {
		enemyIDs[i] = r.cfg.EnemyPool[rnd.Pick(src, len(r.cfg.EnemyPool))]
	}
	enemies, err := r.spawnAll(w, enemyIDs)
	if err != nil {
		return Encounter{}, err
	}

	bus := event.NewBus()
	if ai.IsDebugEnabled() {
		bus.Subscribe(event.Message, event.ListenerFunc(func(e event.Event) {
			slog.Debug("narration", "encounter", index, "text", e.Text)
		}))
	}

	sys := combat.New(
		combat.WithRand(src),
		combat.WithBus(bus),
		combat.WithPolicy(r.enemyPolicy),
		combat.WithAllyPolicy(r.allyPolicy),
		combat.WithBattlefieldSize(r.cfg.BattlefieldSize),
	)
	if err := sys.StartCombat(allies, enemies); err != nil {
		return Encounter{}, fmt.Errorf("starting encounter %d: %w", index, err)
	}

	for sys.State() != combat.Ended && sys.TurnsTaken() < r.cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return Encounter{}, err
		}
		if err := sys.ProcessAutoTurn(); err != nil {
			return Encounter{}, fmt.Errorf("encounter %d turn %d: %w", index, sys.TurnsTaken(), err)
		}
	}

	enc := Encounter{
		Index:        index,
		Seed:         seed,
		Result:       sys.Result(),
		Rounds:       sys.TurnManager().Round(),
		Turns:        sys.TurnsTaken(),
		Enemies:      len(sys.Enemies()),
		AlliesAlive:  countAlive(sys.Allies()),
		EnemiesAlive: countAlive(sys.Enemies()),
	}
	slog.Debug("encounter finished",
		"index", index,
		"seed", seed,
		"result", enc.Result,
		"rounds", enc.Rounds,
		"turns", enc.Turns)
	return enc, nil
}

// RunBatch plays cfg.Battles encounters on cfg.Workers goroutines.
// Encounter i uses seed base+i, where base is cfg.Seed or a time-based
// value when that is zero.
func (r *Runner) RunBatch(ctx context.Context) (Report, error) {
	base := r.cfg.Seed
	if base == 0 {
		base = uint64(time.Now().UnixNano())
	}

	results := make([]Encounter, r.cfg.Battles)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range results {
		g.Go(func() error {
			enc, err := r.Run(gctx, i, base+uint64(i))
			if err != nil {
				return err
			}
			results[i] = enc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("running batch: %w", err)
	}

	report := Report{Seed: base, Encounters: results}
	for _, e := range results {
		report.add(e)
	}
	return report, nil
}

func (r *Runner) spawnAll(w donburi.World, ids []string) ([]*donburi.Entry, error) {
	out := make([]*donburi.Entry, 0, len(ids))
	for _, id := range ids {
		e, err := r.catalog.Spawn(w, id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func countAlive(roster []*donburi.Entry) int {
	n := 0
	for _, e := range roster {
		if model.IsAlive(e) {
			n++
		}
	}
	return n
}

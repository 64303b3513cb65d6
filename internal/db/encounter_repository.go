package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run describes one batch of simulated encounters.
type Run struct {
	ID         int64
	Seed       uint64
	Difficulty int
	Battles    int
	Party      []string
	CreatedAt  time.Time
}

// EncounterRow is the journal entry of one finished encounter.
type EncounterRow struct {
	Index        int
	Seed         uint64
	Result       string
	Rounds       int
	Turns        int
	Enemies      int
	AlliesAlive  int
	EnemiesAlive int
}

// RunStats aggregates the encounters of a run.
type RunStats struct {
	Encounters int
	Victories  int
	Defeats    int
	Escapes    int
	Draws      int
	AvgRounds  float64
}

// EncounterRepository stores simulation outcomes for balance analysis.
// Nothing stored here is ever loaded back into a combat.
type EncounterRepository struct {
	pool *pgxpool.Pool
}

// NewEncounterRepository creates a new encounter repository
func NewEncounterRepository(pool *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{pool: pool}
}

// SaveRun inserts the run and all its encounters in one transaction and
// returns the new run ID.
func (r *EncounterRepository) SaveRun(ctx context.Context, run Run, encounters []EncounterRow) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
			slog.Error("encounter journal rollback failed", "error", err)
		}
	}()

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO simulation_runs (seed, difficulty, battles, party)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, int64(run.Seed), run.Difficulty, run.Battles, run.Party).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("inserting simulation run: %w", err)
	}

	if len(encounters) > 0 {
		rows := make([][]any, 0, len(encounters))
		for _, e := range encounters {
			rows = append(rows, []any{
				runID, e.Index, int64(e.Seed), e.Result, e.Rounds, e.Turns, e.Enemies, e.AlliesAlive, e.EnemiesAlive,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"encounters"},
			[]string{"run_id", "idx", "seed", "result", "rounds", "turns", "enemies", "allies_alive", "enemies_alive"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting encounters for run %d: %w", runID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing run %d: %w", runID, err)
	}

	slog.Debug("saved simulation run", "runID", runID, "encounters", len(encounters))
	return runID, nil
}

// LoadRun returns run metadata. Returns nil, nil if the run does not exist.
func (r *EncounterRepository) LoadRun(ctx context.Context, runID int64) (*Run, error) {
	var (
		run  Run
		seed int64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, seed, difficulty, battles, party, created_at
		FROM simulation_runs
		WHERE id = $1
	`, runID).Scan(&run.ID, &seed, &run.Difficulty, &run.Battles, &run.Party, &run.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", runID, err)
	}
	run.Seed = uint64(seed)
	return &run, nil
}

// ListEncounters returns the encounters of a run in index order.
func (r *EncounterRepository) ListEncounters(ctx context.Context, runID int64) ([]EncounterRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT idx, seed, result, rounds, turns, enemies, allies_alive, enemies_alive
		FROM encounters
		WHERE run_id = $1
		ORDER BY idx
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing encounters of run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []EncounterRow
	for rows.Next() {
		var (
			e    EncounterRow
			seed int64
		)
		if err := rows.Scan(&e.Index, &seed, &e.Result, &e.Rounds, &e.Turns, &e.Enemies, &e.AlliesAlive, &e.EnemiesAlive); err != nil {
			return nil, fmt.Errorf("scanning encounter row: %w", err)
		}
		e.Seed = uint64(seed)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating encounter rows: %w", err)
	}
	return out, nil
}

// Stats aggregates the outcome of a run.
func (r *EncounterRepository) Stats(ctx context.Context, runID int64) (RunStats, error) {
	var s RunStats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE result = 'victory'),
		       count(*) FILTER (WHERE result = 'defeat'),
		       count(*) FILTER (WHERE result = 'escape'),
		       count(*) FILTER (WHERE result = 'none'),
		       COALESCE(avg(rounds), 0)::float8
		FROM encounters
		WHERE run_id = $1
	`, runID).Scan(&s.Encounters, &s.Victories, &s.Defeats, &s.Escapes, &s.Draws, &s.AvgRounds)
	if err != nil {
		return RunStats{}, fmt.Errorf("aggregating run %d: %w", runID, err)
	}
	return s, nil
}

package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/udisondev/skirmish/internal/testutil"
)

// EncounterSuite runs the journal tests against one PostgreSQL container.
// Tables are truncated before each test.
type EncounterSuite struct {
	suite.Suite
	db   *DB
	repo *EncounterRepository
	ctx  context.Context
}

func (s *EncounterSuite) SetupSuite() {
	s.ctx = context.Background()

	pool := testutil.SetupTestDB(s.T())
	dsn := pool.Config().ConnString()

	// Already applied by SetupTestDB; a second run must be a no-op.
	s.Require().NoError(RunMigrations(s.ctx, dsn))

	var err error
	s.db, err = New(s.ctx, dsn)
	s.Require().NoError(err)
	s.repo = s.db.Encounters()
}

func (s *EncounterSuite) SetupTest() {
	_, err := s.db.Pool().Exec(s.ctx, "TRUNCATE TABLE simulation_runs, encounters CASCADE")
	s.Require().NoError(err)
}

func (s *EncounterSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *EncounterSuite) TestSaveAndLoad() {
	run := Run{Seed: 1 << 63, Difficulty: 4, Battles: 3, Party: []string{"knight", "mage"}}
	encounters := []EncounterRow{
		{Index: 0, Seed: 1 << 63, Result: "victory", Rounds: 4, Turns: 20, Enemies: 3, AlliesAlive: 2},
		{Index: 1, Seed: 1<<63 + 1, Result: "defeat", Rounds: 6, Turns: 30, Enemies: 3, EnemiesAlive: 1},
		{Index: 2, Seed: 1<<63 + 2, Result: "victory", Rounds: 5, Turns: 25, Enemies: 3, AlliesAlive: 1},
	}

	runID, err := s.repo.SaveRun(s.ctx, run, encounters)
	s.Require().NoError(err)
	s.Positive(runID)

	loaded, err := s.repo.LoadRun(s.ctx, runID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Equal(run.Seed, loaded.Seed)
	s.Equal(run.Party, loaded.Party)
	s.False(loaded.CreatedAt.IsZero())

	rows, err := s.repo.ListEncounters(s.ctx, runID)
	s.Require().NoError(err)
	s.Equal(encounters, rows)

	stats, err := s.repo.Stats(s.ctx, runID)
	s.Require().NoError(err)
	s.Equal(3, stats.Encounters)
	s.Equal(2, stats.Victories)
	s.Equal(1, stats.Defeats)
	s.Zero(stats.Escapes)
	s.InDelta(5.0, stats.AvgRounds, 0.001)
}

func (s *EncounterSuite) TestMissingRun() {
	run, err := s.repo.LoadRun(s.ctx, 42)
	s.Require().NoError(err)
	s.Nil(run)

	stats, err := s.repo.Stats(s.ctx, 42)
	s.Require().NoError(err)
	s.Zero(stats.Encounters)
	s.Zero(stats.AvgRounds)
}

func (s *EncounterSuite) TestEmptyRun() {
	runID, err := s.repo.SaveRun(s.ctx, Run{Party: []string{"knight"}}, nil)
	s.Require().NoError(err)

	rows, err := s.repo.ListEncounters(s.ctx, runID)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *EncounterSuite) TestRunsAreIsolated() {
	first, err := s.repo.SaveRun(s.ctx, Run{Party: []string{"knight"}}, []EncounterRow{{Result: "victory", Rounds: 2}})
	s.Require().NoError(err)
	second, err := s.repo.SaveRun(s.ctx, Run{Party: []string{"mage"}}, []EncounterRow{{Result: "defeat", Rounds: 8}})
	s.Require().NoError(err)

	stats, err := s.repo.Stats(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(1, stats.Victories)
	s.Zero(stats.Defeats)

	stats, err = s.repo.Stats(s.ctx, second)
	s.Require().NoError(err)
	s.Equal(1, stats.Defeats)
}

func TestEncounterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	suite.Run(t, new(EncounterSuite))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/skirmish/internal/ai"
	"github.com/udisondev/skirmish/internal/config"
	"github.com/udisondev/skirmish/internal/data"
	"github.com/udisondev/skirmish/internal/db"
	"github.com/udisondev/skirmish/internal/sim"
)

const ConfigPath = "config/skirmish.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("SKIRMISH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulator(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("skirmish simulator starting",
		"config", cfgPath,
		"battles", cfg.Battles,
		"workers", cfg.Workers,
		"difficulty", cfg.Difficulty)

	catalog, err := data.Load(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog loaded",
		"actions", len(catalog.ActionIDs()),
		"creatures", len(catalog.CreatureIDs()))

	runner, err := sim.NewRunner(catalog, cfg)
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	report, err := runner.RunBatch(ctx)
	if err != nil {
		return err
	}
	slog.Info("batch finished",
		"seed", report.Seed,
		"victories", report.Victories,
		"defeats", report.Defeats,
		"escapes", report.Escapes,
		"draws", report.Draws,
		"win_rate", fmt.Sprintf("%.1f%%", report.WinRate()*100),
		"avg_rounds", fmt.Sprintf("%.2f", report.AverageRounds()))

	if !cfg.Journal {
		return nil
	}
	return journal(ctx, cfg, report)
}

// journal stores the batch in PostgreSQL.
func journal(ctx context.Context, cfg config.Simulator, report sim.Report) error {
	dsn := cfg.Database.DSN()
	if err := db.RunMigrations(ctx, dsn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	database, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	rows := make([]db.EncounterRow, 0, len(report.Encounters))
	for _, e := range report.Encounters {
		rows = append(rows, db.EncounterRow{
			Index:        e.Index,
			Seed:         e.Seed,
			Result:       e.Result.String(),
			Rounds:       e.Rounds,
			Turns:        e.Turns,
			Enemies:      e.Enemies,
			AlliesAlive:  e.AlliesAlive,
			EnemiesAlive: e.EnemiesAlive,
		})
	}
	run := db.Run{
		Seed:       report.Seed,
		Difficulty: cfg.Difficulty,
		Battles:    cfg.Battles,
		Party:      cfg.Party,
	}
	runID, err := database.Encounters().SaveRun(ctx, run, rows)
	if err != nil {
		return fmt.Errorf("journaling batch: %w", err)
	}
	slog.Info("batch journaled", "run_id", runID, "encounters", len(rows))
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

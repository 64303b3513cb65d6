package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Simulator holds all configuration for the batch combat simulator.
type Simulator struct {
	LogLevel string `yaml:"log_level"`

	// Catalog is the YAML action/creature catalog. Empty selects the
	// bundled one.
	Catalog string `yaml:"catalog"`

	// Batch
	Battles  int    `yaml:"battles"`
	Workers  int    `yaml:"workers"`
	Seed     uint64 `yaml:"seed"`      // 0 = time-based
	MaxTurns int    `yaml:"max_turns"` // per encounter, then a draw

	// Encounter
	Party           []string `yaml:"party"`
	EnemyPool       []string `yaml:"enemy_pool"`
	Difficulty      int      `yaml:"difficulty"`
	BattlefieldSize int      `yaml:"battlefield_size"`
	AllyPolicy      string   `yaml:"ally_policy"`
	EnemyPolicy     string   `yaml:"enemy_policy"`

	// Journal
	Journal  bool           `yaml:"journal"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultSimulator returns Simulator config with sensible defaults.
func DefaultSimulator() Simulator {
	return Simulator{
		LogLevel:        "info",
		Battles:         100,
		Workers:         4,
		MaxTurns:        500,
		Party:           []string{"cleric", "mage", "archer", "knight"},
		EnemyPool:       []string{"goblin", "orc", "shaman", "troll"},
		Difficulty:      4,
		BattlefieldSize: 8,
		AllyPolicy:      "tactical",
		EnemyPolicy:     "random",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "skirmish",
			Password: "skirmish",
			DBName:   "skirmish",
			SSLMode:  "disable",
		},
	}
}

// Validate reports the first inconsistent setting.
func (s Simulator) Validate() error {
	switch {
	case s.Battles <= 0:
		return errors.New("battles must be positive")
	case s.Workers <= 0:
		return errors.New("workers must be positive")
	case s.MaxTurns <= 0:
		return errors.New("max_turns must be positive")
	case len(s.Party) == 0:
		return errors.New("party is empty")
	case len(s.EnemyPool) == 0:
		return errors.New("enemy_pool is empty")
	case s.Difficulty < 0:
		return errors.New("difficulty must not be negative")
	case s.BattlefieldSize < 2 || s.BattlefieldSize%2 != 0:
		return fmt.Errorf("battlefield_size %d must be even and at least 2", s.BattlefieldSize)
	}
	return nil
}

// LoadSimulator loads simulator config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSimulator(path string) (Simulator, error) {
	cfg := DefaultSimulator()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

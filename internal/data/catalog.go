package data

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/yohamta/donburi"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/skirmish/internal/game/action"
	"github.com/udisondev/skirmish/internal/game/status"
	"github.com/udisondev/skirmish/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownCreature = errors.New("unknown creature")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

// ActionDef is the data form of an action.
type ActionDef struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Type        action.Type `yaml:"type"`
	Accuracy    *int        `yaml:"accuracy"`
	Range       *int        `yaml:"range"`
	Cooldown    int         `yaml:"cooldown"`

	Damage         int                    `yaml:"damage"`
	Physical       bool                   `yaml:"physical"`
	Heal           int                    `yaml:"heal"`
	PositionChange int                    `yaml:"position_change"`
	SelfOnly       bool                   `yaml:"self_only"`
	CanTargetSelf  bool                   `yaml:"can_target_self"`
	Hostile        bool                   `yaml:"hostile"`
	Duration       int                    `yaml:"duration"`
	Modifiers      map[model.StatType]int `yaml:"modifiers"`

	// Special names a callback registered with action.RegisterSpecial.
	Special string `yaml:"special"`
}

// StatsDef holds the base stats of a creature.
type StatsDef struct {
	Strength     int `yaml:"strength"`
	Intellect    int `yaml:"intellect"`
	Speed        int `yaml:"speed"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Defense      int `yaml:"defense"`
	Luck         int `yaml:"luck"`
}

// Stats builds the runtime stat block.
func (d StatsDef) Stats() model.Stats {
	return model.NewStats(d.Strength, d.Intellect, d.Speed, d.Dexterity, d.Constitution, d.Defense, d.Luck)
}

// CreatureDef is the data form of a combatant template.
type CreatureDef struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Stats   StatsDef `yaml:"stats"`
	Actions []string `yaml:"actions"`
}

type catalogFile struct {
	Actions   []ActionDef   `yaml:"actions"`
	Creatures []CreatureDef `yaml:"creatures"`
}

// Catalog is the read-only registry of action and creature definitions.
// Every lookup hands out fresh instances, so cooldowns are never shared
// between combatants.
type Catalog struct {
	actions   map[string]*ActionDef
	creatures map[string]*CreatureDef

	actionIDs   []string
	creatureIDs []string
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("bundled catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog from a YAML file. An empty path selects the
// bundled catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		actions:   make(map[string]*ActionDef, len(f.Actions)),
		creatures: make(map[string]*CreatureDef, len(f.Creatures)),
	}
	for i := range f.Actions {
		def := &f.Actions[i]
		if err := validateAction(def); err != nil {
			return nil, err
		}
		if _, dup := c.actions[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate action %q", ErrInvalidCatalog, def.ID)
		}
		c.actions[def.ID] = def
		c.actionIDs = append(c.actionIDs, def.ID)
	}
	for i := range f.Creatures {
		def := &f.Creatures[i]
		if err := c.validateCreature(def); err != nil {
			return nil, err
		}
		if _, dup := c.creatures[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate creature %q", ErrInvalidCatalog, def.ID)
		}
		c.creatures[def.ID] = def
		c.creatureIDs = append(c.creatureIDs, def.ID)
	}

	slog.Debug("loaded catalog", "actions", len(c.actions), "creatures", len(c.creatures))
	return c, nil
}

func validateAction(def *ActionDef) error {
	switch {
	case def.ID == "":
		return fmt.Errorf("%w: action without id", ErrInvalidCatalog)
	case def.Name == "":
		return fmt.Errorf("%w: action %q has no name", ErrInvalidCatalog, def.ID)
	case def.Accuracy != nil && (*def.Accuracy < 0 || *def.Accuracy > 100):
		return fmt.Errorf("%w: action %q accuracy %d outside [0, 100]", ErrInvalidCatalog, def.ID, *def.Accuracy)
	case def.Range != nil && *def.Range < 0:
		return fmt.Errorf("%w: action %q has negative range", ErrInvalidCatalog, def.ID)
	case def.Cooldown < 0:
		return fmt.Errorf("%w: action %q has negative cooldown", ErrInvalidCatalog, def.ID)
	}
	if def.Special != "" {
		if _, err := action.LookupSpecial(def.Special); err != nil {
			return fmt.Errorf("%w: action %q: %w", ErrInvalidCatalog, def.ID, err)
		}
	}
	return nil
}

func (c *Catalog) validateCreature(def *CreatureDef) error {
	switch {
	case def.ID == "":
		return fmt.Errorf("%w: creature without id", ErrInvalidCatalog)
	case def.Name == "":
		return fmt.Errorf("%w: creature %q has no name", ErrInvalidCatalog, def.ID)
	case len(def.Actions) == 0:
		return fmt.Errorf("%w: creature %q has no actions", ErrInvalidCatalog, def.ID)
	}
	s := def.Stats
	if slices.ContainsFunc([]int{s.Strength, s.Intellect, s.Speed, s.Dexterity, s.Constitution, s.Defense, s.Luck},
		func(v int) bool { return v < 0 }) {
		return fmt.Errorf("%w: creature %q has a negative stat", ErrInvalidCatalog, def.ID)
	}
	for _, id := range def.Actions {
		if _, ok := c.actions[id]; !ok {
			return fmt.Errorf("%w: creature %q: %w %q", ErrInvalidCatalog, def.ID, ErrUnknownAction, id)
		}
	}
	return nil
}

// ActionIDs returns the action ids in file order.
func (c *Catalog) ActionIDs() []string { return slices.Clone(c.actionIDs) }

// CreatureIDs returns the creature ids in file order.
func (c *Catalog) CreatureIDs() []string { return slices.Clone(c.creatureIDs) }

// HasAction reports whether id is defined.
func (c *Catalog) HasAction(id string) bool {
	_, ok := c.actions[id]
	return ok
}

// ActionDef returns the definition of action id.
func (c *Catalog) ActionDef(id string) (ActionDef, bool) {
	def, ok := c.actions[id]
	if !ok {
		return ActionDef{}, false
	}
	return *def, true
}

// CreatureDef returns the definition of creature id.
func (c *Catalog) CreatureDef(id string) (CreatureDef, bool) {
	def, ok := c.creatures[id]
	if !ok {
		return CreatureDef{}, false
	}
	return *def, true
}

// NewAction builds a fresh action instance from its definition.
func (c *Catalog) NewAction(id string) (*action.Action, error) {
	def, ok := c.actions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}

	a := action.New(def.ID, def.Name, def.Type)
	a.SetDescription(def.Description)
	if def.Accuracy != nil {
		a.SetAccuracy(*def.Accuracy)
	}
	if def.Range != nil {
		a.SetRange(*def.Range)
	}
	a.SetCooldown(def.Cooldown)

	p := action.Params{
		Damage:         def.Damage,
		Physical:       def.Physical,
		HealAmount:     def.Heal,
		PositionChange: def.PositionChange,
		SelfOnly:       def.SelfOnly,
		CanTargetSelf:  def.CanTargetSelf,
		Hostile:        def.Hostile,
		Duration:       def.Duration,
	}
	for stat, delta := range def.Modifiers {
		p.Modifiers = append(p.Modifiers, action.StatDelta{Stat: stat, Delta: delta})
	}
	slices.SortFunc(p.Modifiers, func(x, y action.StatDelta) int { return int(x.Stat) - int(y.Stat) })
	a.SetParams(p)

	if def.Special != "" {
		cb, err := action.LookupSpecial(def.Special)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", id, err)
		}
		a.SetCallback(cb)
	}
	return a, nil
}

// Spawn creates creature id in w with its stats, a status effect
// container and a loadout of fresh actions.
func (c *Catalog) Spawn(w donburi.World, id string) (*donburi.Entry, error) {
	def, ok := c.creatures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCreature, id)
	}

	actions := make([]*action.Action, 0, len(def.Actions))
	for _, actionID := range def.Actions {
		a, err := c.NewAction(actionID)
		if err != nil {
			return nil, fmt.Errorf("spawning %s: %w", id, err)
		}
		actions = append(actions, a)
	}

	e := model.Spawn(w, def.Name, def.Stats.Stats(), status.Component)
	action.Equip(e, actions...)
	return e, nil
}

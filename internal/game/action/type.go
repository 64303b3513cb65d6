package action

import (
	"fmt"
	"strings"
)

// Type is the declared category of an action. It drives targeting rules
// and which effects are built from Params.
type Type uint8

const (
	Attack Type = iota
	Buff
	Debuff
	Heal
	Movement
	Special
	Compound
)

var typeNames = [...]string{
	Attack:   "ATTACK",
	Buff:     "BUFF",
	Debuff:   "DEBUFF",
	Heal:     "HEAL",
	Movement: "MOVEMENT",
	Special:  "SPECIAL",
	Compound: "COMPOUND",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ParseType resolves an action type by name, ignoring case.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if strings.EqualFold(name, s) {
			return Type(t), nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

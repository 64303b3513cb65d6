package status

import (
	"fmt"
	"strings"
)

// Kind classifies a status effect.
type Kind uint8

const (
	Poison Kind = iota
	Stun
	Buff
	Debuff
	Burning
	Freezing
	Bleeding
	Confusion
	Blind
	Shield
)

var kindNames = [...]string{
	Poison:    "POISON",
	Stun:      "STUN",
	Buff:      "BUFF",
	Debuff:    "DEBUFF",
	Burning:   "BURNING",
	Freezing:  "FREEZING",
	Bleeding:  "BLEEDING",
	Confusion: "CONFUSION",
	Blind:     "BLIND",
	Shield:    "SHIELD",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind resolves a kind by its upper-case key, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown status kind %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

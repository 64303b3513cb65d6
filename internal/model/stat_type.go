package model

import (
	"fmt"
	"strings"
)

// StatType identifies one of the seven base attributes of a combatant.
type StatType uint8

const (
	Strength     StatType = iota // physical damage
	Intellect                    // magical damage
	Speed                        // initiative
	Dexterity                    // dodge
	Constitution                 // max health
	Defense                      // block chance
	Luck                         // critical chance

	statCount
)

// StatTypes lists every stat in declaration order.
var StatTypes = [statCount]StatType{Strength, Intellect, Speed, Dexterity, Constitution, Defense, Luck}

var statKeys = [statCount]string{"STRENGTH", "INTELLECT", "SPEED", "DEXTERITY", "CONSTITUTION", "DEFENSE", "LUCK"}

var statNames = [statCount]string{"Strength", "Intellect", "Speed", "Dexterity", "Constitution", "Defense", "Luck"}

// Key returns the upper-case identifier used in data files ("STRENGTH").
func (s StatType) Key() string {
	if s >= statCount {
		return "UNKNOWN"
	}
	return statKeys[s]
}

// String returns the display name ("Strength").
func (s StatType) String() string {
	if s >= statCount {
		return "Unknown"
	}
	return statNames[s]
}

// ParseStatType accepts either the data key or the display name, case-insensitive.
func ParseStatType(s string) (StatType, error) {
	for i, key := range statKeys {
		if strings.EqualFold(s, key) {
			return StatType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stat type %q", s)
}

// MarshalText encodes the stat as its data key.
func (s StatType) MarshalText() ([]byte, error) {
	if s >= statCount {
		return nil, fmt.Errorf("invalid stat type %d", s)
	}
	return []byte(s.Key()), nil
}

// UnmarshalText decodes a data key or display name.
func (s *StatType) UnmarshalText(text []byte) error {
	v, err := ParseStatType(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

package graph

import (
	"fmt"
	"strings"
)

// Prominence is an entity's rank on the fixed fame ladder.
type Prominence int

const (
	Forgotten Prominence = iota
	Marginal
	Recognized
	Renowned
	Mythic
)

var prominenceNames = []string{"forgotten", "marginal", "recognized", "renowned", "mythic"}

func ParseProminence(name string) (Prominence, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range prominenceNames {
		if candidate == key {
			return Prominence(i), true
		}
	}
	return Forgotten, false
}

func (p Prominence) String() string {
	if p < Forgotten || p > Mythic {
		return "unknown"
	}
	return prominenceNames[p]
}

// Index is the zero-based ladder position.
func (p Prominence) Index() int {
	return int(p)
}

// Up moves one step toward mythic, staying put at the top of the ladder.
func (p Prominence) Up() Prominence {
	if p >= Mythic {
		return Mythic
	}
	return p + 1
}

// Down moves one step toward forgotten, staying put at the bottom of the ladder.
func (p Prominence) Down() Prominence {
	if p <= Forgotten {
		return Forgotten
	}
	return p - 1
}

func ProminenceLevels() []string {
	return append([]string(nil), prominenceNames...)
}

func (p Prominence) MarshalText() ([]byte, error) {
	if p < Forgotten || p > Mythic {
		return nil, fmt.Errorf("prominence out of range: %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Prominence) UnmarshalText(text []byte) error {
	parsed, ok := ParseProminence(string(text))
	if !ok {
		return fmt.Errorf("unknown prominence %q", text)
	}
	*p = parsed
	return nil
}

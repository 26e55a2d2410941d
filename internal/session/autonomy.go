package session

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Autonomy controls how much the tool does without asking.
//
//	A: creates issues and posts worklogs automatically
//	B: posts automatically, never creates
//	C: queues everything for approval
type Autonomy string

const (
	AutonomyA Autonomy = "A"
	AutonomyB Autonomy = "B"
	AutonomyC Autonomy = "C"
)

// Valid reports whether a is one of A, B or C.
func (a Autonomy) Valid() bool {
	return a == AutonomyA || a == AutonomyB || a == AutonomyC
}

// ParseAutonomy accepts a letter or a number from 1 to 10.
// 10 maps to A, 6-9 to B, anything else to C.
func ParseAutonomy(v string) Autonomy {
	v = strings.TrimSpace(v)
	switch a := Autonomy(strings.ToUpper(v)); a {
	case AutonomyA, AutonomyB, AutonomyC:
		return a
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return AutonomyC
	}
	return AutonomyFromNumber(n)
}

// AutonomyFromNumber maps the numeric 1-10 scale onto A/B/C.
func AutonomyFromNumber(n int) Autonomy {
	switch {
	case n >= 10:
		return AutonomyA
	case n >= 6:
		return AutonomyB
	default:
		return AutonomyC
	}
}

// UnmarshalJSON accepts "A", "7" or 7.
func (a *Autonomy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = ParseAutonomy(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = AutonomyFromNumber(int(n))
		return nil
	}
	*a = AutonomyC
	return nil
}

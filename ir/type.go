// Package ir provides the staged dataflow IR used to model hardware pipelines.
//
// A Pipeline is a linear chain of Stages. Each Stage is a Block of Operations
// ending in a terminator that names the next stage and the values carried
// across the boundary. Values are produced by Operations or are arguments of
// a Block.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Type describes the shape of a Value. Only integer signals and clocks are
// modeled.
type Type struct {
	// Width is the bit width of an integer signal.
	Width int

	// Clock marks the clock type. Width is ignored for clocks.
	Clock bool
}

// IntType returns the integer type of the given width.
func IntType(width int) Type {
	return Type{Width: width}
}

// ClockType returns the clock type.
func ClockType() Type {
	return Type{Clock: true}
}

// String renders the type the way the printer and the loader spell it.
func (t Type) String() string {
	if t.Clock {
		return "clock"
	}
	return "i" + strconv.Itoa(t.Width)
}

// ParseType parses "iN" with N > 0, or "clock".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "clock" {
		return ClockType(), nil
	}
	if !strings.HasPrefix(s, "i") {
		return Type{}, fmt.Errorf("invalid type %q", s)
	}
	width, err := strconv.Atoi(s[1:])
	if err != nil || width <= 0 {
		return Type{}, fmt.Errorf("invalid type %q", s)
	}
	return IntType(width), nil
}

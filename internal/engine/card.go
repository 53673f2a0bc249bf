// Package engine implements the UNO rules: deck, turn order, card effects and scoring.
//
// A Game is not safe for concurrent use. Callers serialize access, usually with the
// mutex held by the owning session.
package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Color is the color of a card or the color in play.
type Color int

const (
	ColorRed Color = iota + 1
	ColorGreen
	ColorBlue
	ColorYellow
	ColorWild
)

// Colors lists the four playable colors in deck order.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

var colorNames = map[Color]string{
	ColorRed:    "red",
	ColorGreen:  "green",
	ColorBlue:   "blue",
	ColorYellow: "yellow",
	ColorWild:   "wild",
}

func (c Color) String() string {
	if s, ok := colorNames[c]; ok {
		return s
	}
	return "none"
}

// Playable reports whether c can be the color in play.
func (c Color) Playable() bool {
	return c >= ColorRed && c <= ColorYellow
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses a color name case-insensitively. The empty string yields the zero
// Color, which PlayCard treats as "no color chosen".
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// Value is the face of a card.
type Value int

const (
	ValueZero Value = iota
	ValueOne
	ValueTwo
	ValueThree
	ValueFour
	ValueFive
	ValueSix
	ValueSeven
	ValueEight
	ValueNine
	ValueSkip
	ValueReverse
	ValueDrawTwo
	ValueWild
	ValueWildDrawFour
)

var valueNames = map[Value]string{
	ValueSkip:         "skip",
	ValueReverse:      "reverse",
	ValueDrawTwo:      "draw_two",
	ValueWild:         "wild",
	ValueWildDrawFour: "wild_draw_four",
}

func (v Value) String() string {
	if v.IsNumber() {
		return fmt.Sprintf("%d", int(v))
	}
	if s, ok := valueNames[v]; ok {
		return s
	}
	return "unknown"
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(b []byte) error {
	s := string(b)
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		*v = Value(s[0] - '0')
		return nil
	}
	for val, name := range valueNames {
		if name == s {
			*v = val
			return nil
		}
	}
	return fmt.Errorf("unknown card value %q", s)
}

// IsNumber reports whether v is one of 0-9.
func (v Value) IsNumber() bool {
	return v >= ValueZero && v <= ValueNine
}

// IsAction reports whether v is Skip, Reverse or DrawTwo.
func (v Value) IsAction() bool {
	return v == ValueSkip || v == ValueReverse || v == ValueDrawTwo
}

// IsWild reports whether v is Wild or WildDrawFour.
func (v Value) IsWild() bool {
	return v == ValueWild || v == ValueWildDrawFour
}

// Card is an immutable UNO card. Wild cards always carry ColorWild.
type Card struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

// Points returns the score value of c when left in a losing hand.
func (c Card) Points() int {
	switch {
	case c.Value.IsNumber():
		return int(c.Value)
	case c.Value.IsAction():
		return 20
	case c.Value.IsWild():
		return 50
	}
	return 0
}

// IsWild reports whether c is a Wild or WildDrawFour.
func (c Card) IsWild() bool {
	return c.Value.IsWild()
}

// Valid reports whether the color and value of c form a real card.
func (c Card) Valid() bool {
	if c.Value.IsWild() {
		return c.Color == ColorWild
	}
	return c.Color.Playable() && (c.Value.IsNumber() || c.Value.IsAction())
}

func (c Card) String() string {
	switch c.Value {
	case ValueWild:
		return "wild"
	case ValueWildDrawFour:
		return "wild draw four"
	case ValueDrawTwo:
		return c.Color.String() + " draw two"
	}
	return c.Color.String() + " " + c.Value.String()
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Color  Color `json:"color"`
		Value  Value `json:"value"`
		Points int   `json:"points"`
	}{c.Color, c.Value, c.Points()})
}

func handPoints(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Points()
	}
	return total
}

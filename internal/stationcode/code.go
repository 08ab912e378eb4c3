package stationcode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedCode is returned when a string is not a valid station code
var ErrMalformedCode = errors.New("malformed station code")

// NoNumber marks letter-only codes such as STC or PTC
const NoNumber = -1

var codePattern = regexp.MustCompile(`^([A-Z]+)(?:(0|[1-9][0-9]*)([A-Z]*))?$`)

// Code is a parsed station code, e.g. NS3A -> {NS, 3, A}
type Code struct {
	Line   string
	Number int
	Suffix string
}

// Parse splits a station code into its line code, number and suffix
func Parse(s string) (Code, error) {
	m := codePattern.FindStringSubmatch(s)
	if m == nil {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformedCode, s)
	}

	if m[2] == "" {
		return Code{Line: m[1], Number: NoNumber}, nil
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformedCode, s)
	}

	return Code{Line: m[1], Number: n, Suffix: m[3]}, nil
}

// MustParse is Parse for codes known to be valid; it panics otherwise
func MustParse(s string) Code {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the code back into its canonical string form
func (c Code) String() string {
	if c.Number == NoNumber {
		return c.Line
	}
	var b strings.Builder
	b.WriteString(c.Line)
	b.WriteString(strconv.Itoa(c.Number))
	b.WriteString(c.Suffix)
	return b.String()
}

// Compare orders codes by line code, then number, then suffix.
// An empty suffix sorts before any non-empty one.
func Compare(a, b Code) int {
	if a.Line != b.Line {
		return strings.Compare(a.Line, b.Line)
	}
	if a.Number != b.Number {
		if a.Number < b.Number {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Suffix, b.Suffix)
}

// Less reports whether c sorts before o
func (c Code) Less(o Code) bool {
	return Compare(c, o) < 0
}

// Pair is the canonical key of an undirected segment; Low always sorts before High
type Pair struct {
	Low  Code
	High Code
}

// NewPair orders two distinct codes into a Pair
func NewPair(a, b Code) (Pair, error) {
	switch Compare(a, b) {
	case 0:
		return Pair{}, fmt.Errorf("segment endpoints must differ, got %s twice", a)
	case 1:
		a, b = b, a
	}
	return Pair{Low: a, High: b}, nil
}

func (p Pair) String() string {
	return p.Low.String() + "-" + p.High.String()
}

// Resolve maps a pseudonym code to its canonical code.
// Codes absent from the table are returned unchanged.
func Resolve(code string, pseudonyms map[string]string) string {
	if canonical, ok := pseudonyms[code]; ok {
		return canonical
	}
	return code
}

// Package sizeclass parses the "D<diameter>x<length>" size tokens used to
// classify round bar stock.
package sizeclass

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformed is wrapped by every error returned from Parse.
var ErrMalformed = errors.New("malformed size class")

// SizeClass is a nominal diameter and length in millimeters.
type SizeClass struct {
	Diameter int `json:"diameter"`
	Length   int `json:"length"`
}

func (s SizeClass) String() string {
	return fmt.Sprintf("D%dx%d", s.Diameter, s.Length)
}

// Parse reads tokens such as "D50x200", "D 50 x 200" or "d50X200 h9".
// Anything after the leading digits of the length is ignored.
func Parse(token string) (SizeClass, error) {
	t := strings.TrimSpace(token)
	if t == "" || (t[0] != 'D' && t[0] != 'd') {
		return SizeClass{}, fmt.Errorf("%w: %q has no D prefix", ErrMalformed, token)
	}

	rest := t[1:]
	sep := strings.IndexAny(rest, "xX")
	if sep < 0 {
		return SizeClass{}, fmt.Errorf("%w: %q has no x separator", ErrMalformed, token)
	}

	diameter, err := strconv.Atoi(strings.TrimSpace(rest[:sep]))
	if err != nil {
		return SizeClass{}, fmt.Errorf("%w: %q has no numeric diameter", ErrMalformed, token)
	}

	lengthPart := strings.TrimSpace(rest[sep+1:])
	end := strings.IndexFunc(lengthPart, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(lengthPart)
	}
	if end == 0 {
		return SizeClass{}, fmt.Errorf("%w: %q has no numeric length", ErrMalformed, token)
	}
	length, err := strconv.Atoi(lengthPart[:end])
	if err != nil {
		return SizeClass{}, fmt.Errorf("%w: %q: %v", ErrMalformed, token, err)
	}

	return SizeClass{Diameter: diameter, Length: length}, nil
}

// ParseDimension turns a user supplied diameter or length into a positive
// integer. Empty, wildcard or non-numeric input yields 0, which callers
// treat as unrestricted.
func ParseDimension(input string) int {
	s := strings.TrimSpace(strings.ReplaceAll(input, "%", ""))
	if len(s) > 1 && (s[0] == 'D' || s[0] == 'd') {
		s = strings.TrimSpace(s[1:])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

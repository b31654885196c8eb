package game

import (
	"math/rand"
	"strings"
)

// CodeLength is the number of digits in a secret or a guess.
const CodeLength = 4

// Code is an ordered sequence of distinct digits in [0,9].
type Code []int

// Validate checks length, digit range and pairwise uniqueness.
func Validate(code Code) error {
	if len(code) != CodeLength {
		return ErrInvalidCode
	}
	var seen [10]bool
	for _, d := range code {
		if d < 0 || d > 9 {
			return ErrInvalidCode
		}
		if seen[d] {
			return ErrInvalidCode
		}
		seen[d] = true
	}
	return nil
}

// String renders the code as a compact digit string, e.g. "3709".
func (c Code) String() string {
	var b strings.Builder
	for _, d := range c {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

// Parse converts a stored digit string back into a Code. It rejects anything
// that Validate would reject.
func Parse(s string) (Code, error) {
	if len(s) != CodeLength {
		return nil, ErrInvalidCode
	}
	code := make(Code, 0, CodeLength)
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, ErrInvalidCode
		}
		code = append(code, int(s[i]-'0'))
	}
	if err := Validate(code); err != nil {
		return nil, err
	}
	return code, nil
}

// Random draws a uniformly random permutation of 4 digits out of 10. Used for
// the computer opponent's secret.
func Random(rng *rand.Rand) Code {
	digits := rng.Perm(10)
	return Code(digits[:CodeLength])
}

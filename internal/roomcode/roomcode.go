// Package roomcode generates and validates human-shareable room codes
// in the meet style: three lowercase-letter groups, e.g. "abc-defg-hij".
package roomcode

import (
	"math/rand"
	"regexp"
	"strings"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// Generated codes are always 3-4-3; validation additionally accepts the
// looser 3 / 4-5 / 3-5 shape that older clients produced.
var codePattern = regexp.MustCompile(`^[a-z]{3}-[a-z]{4,5}-[a-z]{3,5}$`)

// Generate returns a fresh room code of the form abc-defg-hij.
func Generate() string {
	var b strings.Builder
	b.Grow(12)
	for i, n := range [3]int{3, 4, 3} {
		if i > 0 {
			b.WriteByte('-')
		}
		for j := 0; j < n; j++ {
			b.WriteByte(letters[rand.Intn(len(letters))])
		}
	}
	return b.String()
}

// IsValid reports whether code matches the public room code contract.
func IsValid(code string) bool {
	return codePattern.MatchString(code)
}

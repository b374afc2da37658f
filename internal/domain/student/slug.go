package student

import (
	"crypto/rand"

	"school-sos-go/pkg/slugify"
)

const (
	slugSuffixLen   = 5
	maxSlugAttempts = 10
	slugAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// randomSuffix draws slugSuffixLen base36 characters from crypto/rand.
// Bytes >= 252 are rejected so every character is equally likely.
func randomSuffix() (string, error) {
	out := make([]byte, 0, slugSuffixLen)
	buf := make([]byte, slugSuffixLen*2)
	for len(out) < slugSuffixLen {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, slugAlphabet[int(b)%len(slugAlphabet)])
			if len(out) == slugSuffixLen {
				break
			}
		}
	}
	return string(out), nil
}

// slugBase is the readable part of a student slug. Names with nothing
// transliterable fall back to "student".
func slugBase(firstName, lastName string) string {
	base := slugify.Make(firstName, lastName)
	if base == "" {
		return "student"
	}
	return base
}

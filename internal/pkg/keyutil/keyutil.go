// Package keyutil normalizes user-supplied project keys into the canonical
// form used in task keys ("KEY-001").
package keyutil

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxKeyLength = 10

// Normalize folds a raw key to NFKC, uppercases it and strips everything
// but ASCII letters and digits. Returns an error when nothing usable
// remains or the result exceeds the length limit.
func Normalize(raw string) (string, error) {
	folded := norm.NFKC.String(strings.TrimSpace(raw))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}

	key := b.String()
	if key == "" {
		return "", errors.New("project key must contain at least one letter or digit")
	}
	if key[0] >= '0' && key[0] <= '9' {
		return "", errors.New("project key must start with a letter")
	}
	if len(key) > maxKeyLength {
		return "", errors.New("project key exceeds 10 characters")
	}
	return key, nil
}

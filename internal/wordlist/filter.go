// Package wordlist provides word list filtering helpers.
package wordlist

import (
	"unicode"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// Filter returns the words accepted by keep, preserving order.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if keep(word) {
			out = append(out, word)
		}
	}
	return out
}

// Alphabetic accepts words made entirely of Latin letters or entirely of
// Cyrillic letters, in any case. Digits, punctuation and mixed scripts are rejected.
func Alphabetic(word string) bool {
	if word == "" {
		return false
	}
	var script *unicode.RangeTable
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
		current := scriptOf(r)
		if current == nil {
			return false
		}
		if script == nil {
			script = current
			continue
		}
		if script != current {
			return false
		}
	}
	return true
}

func scriptOf(r rune) *unicode.RangeTable {
	switch {
	case unicode.Is(unicode.Latin, r):
		return unicode.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return unicode.Cyrillic
	default:
		return nil
	}
}

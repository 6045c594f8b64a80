package stats

import (
	"unicode/utf8"

	"github.com/verte-zerg/typist/internal/model"
)

// ProblemChars returns up to top distinct characters, most frequently mistyped first.
func ProblemChars(freqs []model.ErrorFrequency, top int) []rune {
	ranked := RankErrors(freqs, len(freqs))
	out := make([]rune, 0, top)
	seen := map[rune]struct{}{}
	for _, f := range ranked {
		if len(out) >= top {
			break
		}
		r, size := utf8.DecodeRuneInString(f.Expected)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// Generator produces randomized typing text. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Generator drawing from src, for reproducible output.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Plain shuffles a copy of words and joins the first count of them with single spaces.
func (g *Generator) Plain(words []string, count int) string {
	if count <= 0 || len(words) == 0 {
		return ""
	}
	shuffled := make([]string, len(words))
	copy(shuffled, words)

	g.mu.Lock()
	g.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	g.mu.Unlock()

	if count > len(shuffled) {
		count = len(shuffled)
	}
	return strings.Join(shuffled[:count], " ")
}

// Adaptive builds text of at least target runes biased toward the problem characters.
//
// Each step draws a random word. Words already containing a problem character are
// kept as is; the rest are kept as filler half of the time and otherwise get one
// random problem character spliced in at a random offset. The result may overshoot
// target by up to one word and is never truncated.
func (g *Generator) Adaptive(words []string, problem []rune, target int) string {
	if len(words) == 0 || len(problem) == 0 {
		return ""
	}
	lowered := make([]rune, len(problem))
	for i, r := range problem {
		lowered[i] = unicode.ToLower(r)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	length := 0
	for length < target {
		word := words[g.rnd.Intn(len(words))]
		switch {
		case containsAny(word, lowered):
		case g.rnd.Intn(2) == 1:
		default:
			word = g.splice(word, problem)
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
			length++
		}
		b.WriteString(word)
		length += utf8.RuneCountInString(word)
	}
	return b.String()
}

func (g *Generator) splice(word string, problem []rune) string {
	runes := []rune(word)
	pos := g.rnd.Intn(len(runes) + 1)
	ch := problem[g.rnd.Intn(len(problem))]
	out := make([]rune, 0, len(runes)+1)
	out = append(out, runes[:pos]...)
	out = append(out, ch)
	out = append(out, runes[pos:]...)
	return string(out)
}

// containsAny reports whether word contains one of the lowered runes, ignoring case.
func containsAny(word string, lowered []rune) bool {
	word = strings.ToLower(word)
	for _, r := range lowered {
		if strings.ContainsRune(word, r) {
			return true
		}
	}
	return false
}

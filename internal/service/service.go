// Package service implements the operations behind the HTTP endpoints.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/typist/internal/generator"
	"github.com/verte-zerg/typist/internal/model"
	"github.com/verte-zerg/typist/internal/stats"
)

var (
	// ErrDictionaryNotFound means no usable word list exists for a language.
	ErrDictionaryNotFound = errors.New("dictionary for the selected language not found")
	// ErrValidation wraps every rejected submission.
	ErrValidation = errors.New("validation failed")
)

// NoErrorDataText is returned as adaptive text for users without error history.
const NoErrorDataText = "No error data yet. Complete a regular test first."

// TopErrors is the size of the error profile.
const TopErrors = 5

// Store is the persistence used by Typing.
type Store interface {
	SaveSession(ctx context.Context, userID int64, in model.SessionInput) (model.TypingSession, error)
	UserStat(ctx context.Context, userID int64) (model.UserStat, error)
	FrequentErrors(ctx context.Context, userID int64, limit int) ([]model.ErrorFrequency, error)
}

// Dictionary supplies filtered word lists.
type Dictionary interface {
	Load(ctx context.Context, lang string) ([]string, error)
}

// Options tunes text generation.
type Options struct {
	AdaptiveLength int
	PlainWords     int
}

// Typing serves practice text and records sessions.
type Typing struct {
	store Store
	dict  Dictionary
	gen   *generator.Generator
	log   *zap.Logger
	opts  Options
}

// New wires a Typing service. Zero options fall back to 300 characters and 50 words.
func New(store Store, dict Dictionary, gen *generator.Generator, log *zap.Logger, opts Options) *Typing {
	if gen == nil {
		gen = generator.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.AdaptiveLength <= 0 {
		opts.AdaptiveLength = 300
	}
	if opts.PlainWords <= 0 {
		opts.PlainWords = 50
	}
	return &Typing{store: store, dict: dict, gen: gen, log: log, opts: opts}
}

func (t *Typing) words(ctx context.Context, lang string) ([]string, error) {
	words, err := t.dict.Load(ctx, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary %q: %w", lang, err)
	}
	if len(words) == 0 {
		return nil, ErrDictionaryNotFound
	}
	return words, nil
}

// AdaptiveText builds practice text weighted toward the user's most
// frequently mistyped characters.
func (t *Typing) AdaptiveText(ctx context.Context, userID int64, lang string) (string, error) {
	words, err := t.words(ctx, lang)
	if err != nil {
		return "", err
	}
	freqs, err := t.store.FrequentErrors(ctx, userID, TopErrors)
	if err != nil {
		return "", fmt.Errorf("failed to load error profile: %w", err)
	}
	problem := stats.ProblemChars(freqs, TopErrors)
	if len(problem) == 0 {
		return NoErrorDataText, nil
	}
	t.log.Debug("adaptive text",
		zap.Int64("user_id", userID),
		zap.String("lang", lang),
		zap.String("problem_chars", string(problem)),
	)
	return t.gen.Adaptive(words, problem, t.opts.AdaptiveLength), nil
}

// PlainText returns count shuffled words; count <= 0 uses the configured default.
func (t *Typing) PlainText(ctx context.Context, lang string, count int) (string, error) {
	words, err := t.words(ctx, lang)
	if err != nil {
		return "", err
	}
	if count <= 0 {
		count = t.opts.PlainWords
	}
	return t.gen.Plain(words, count), nil
}

// FrequentErrors returns the user's top mistyped characters with counts.
func (t *Typing) FrequentErrors(ctx context.Context, userID int64) ([]model.ErrorFrequency, error) {
	freqs, err := t.store.FrequentErrors(ctx, userID, TopErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to load frequent errors: %w", err)
	}
	if freqs == nil {
		freqs = []model.ErrorFrequency{}
	}
	return freqs, nil
}

// SaveResult validates and stores a completed session.
func (t *Typing) SaveResult(ctx context.Context, userID int64, req ResultRequest) (model.TypingSession, error) {
	in, err := req.Validate()
	if err != nil {
		return model.TypingSession{}, err
	}
	saved, err := t.store.SaveSession(ctx, userID, in)
	if err != nil {
		return model.TypingSession{}, fmt.Errorf("failed to save session: %w", err)
	}
	t.log.Info("session saved",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", saved.ID),
		zap.String("test_type", string(saved.TestType)),
		zap.Int("error_entries", len(in.ErrorLog)),
	)
	return saved, nil
}

// UserStats returns the user's aggregate, zeros when nothing was saved yet.
func (t *Typing) UserStats(ctx context.Context, userID int64) (model.UserStat, error) {
	stat, err := t.store.UserStat(ctx, userID)
	if err != nil {
		return model.UserStat{}, fmt.Errorf("failed to load user stats: %w", err)
	}
	return stat, nil
}

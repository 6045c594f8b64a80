// Package model defines shared data structures.
package model

import "time"

// TestType identifies the modality of a typing session.
type TestType string

// Supported test types.
const (
	TestTime     TestType = "time"
	TestWords    TestType = "words"
	TestAdaptive TestType = "adaptive"
	TestNumbers  TestType = "numbers"
)

// Valid reports whether t is one of the known test types.
func (t TestType) Valid() bool {
	switch t {
	case TestTime, TestWords, TestAdaptive, TestNumbers:
		return true
	}
	return false
}

// TypingSession is a persisted, immutable record of one completed test.
type TypingSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TestType  TestType  `json:"test_type"`
	WPM       float64   `json:"wpm"`
	Accuracy  float64   `json:"accuracy"`
	Errors    int       `json:"errors"`
	Duration  int       `json:"duration"`
	RawText   string    `json:"raw_text"`
	InputText string    `json:"input_text"`
	CreatedAt time.Time `json:"created_at"`
}

// CharacterError is one mismatch recorded during a session.
// CharIndex is a rune offset into the owning session's raw text.
type CharacterError struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"result_id"`
	CharIndex int    `json:"char_index"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

// SessionInput is a validated submission ready to be stored.
type SessionInput struct {
	TestType  TestType
	WPM       float64
	Accuracy  float64
	Errors    int
	Duration  int
	RawText   string
	InputText string
	ErrorLog  []CharacterError
}

// UserStat holds the per-user aggregate kept alongside sessions.
type UserStat struct {
	UserID      int64   `json:"user_id"`
	BestWPM     float64 `json:"best_wpm"`
	AvgAccuracy float64 `json:"avg_accuracy"`
	TotalTests  int     `json:"total_tests"`
}

// ErrorFrequency counts how often a character was expected but mistyped.
type ErrorFrequency struct {
	Expected string `json:"expected"`
	Total    int    `json:"total"`
	// FirstSeen orders equal totals; lower values were recorded earlier.
	FirstSeen int64 `json:"-"`
}

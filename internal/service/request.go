package service

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/verte-zerg/typist/internal/model"
)

// ResultRequest is a session submission as sent by the client.
type ResultRequest struct {
	TestType  string       `json:"test_type"`
	WPM       *float64     `json:"wpm"`
	Accuracy  *float64     `json:"accuracy"`
	Errors    *int         `json:"errors"`
	Duration  *int         `json:"duration"`
	RawText   *string      `json:"raw_text"`
	InputText *string      `json:"input_text"`
	ErrorLog  []ErrorEntry `json:"error_log"`
}

// ErrorEntry is one submitted mismatch.
type ErrorEntry struct {
	CharIndex *int    `json:"char_index"`
	Expected  *string `json:"expected"`
	Actual    *string `json:"actual"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Validate checks the submission and converts it into a storable input.
// Entries without both characters, or with equal characters, are dropped.
func (r ResultRequest) Validate() (model.SessionInput, error) {
	testType := model.TestTime
	if r.TestType != "" {
		testType = model.TestType(r.TestType)
		if !testType.Valid() {
			return model.SessionInput{}, invalid("unknown test_type %q", r.TestType)
		}
	}
	if err := checkNumber("wpm", r.WPM, math.Inf(1)); err != nil {
		return model.SessionInput{}, err
	}
	if err := checkNumber("accuracy", r.Accuracy, 100); err != nil {
		return model.SessionInput{}, err
	}
	if r.Errors == nil {
		return model.SessionInput{}, invalid("errors is required")
	}
	if *r.Errors < 0 {
		return model.SessionInput{}, invalid("errors must not be negative")
	}
	if r.Duration == nil {
		return model.SessionInput{}, invalid("duration is required")
	}
	if *r.Duration < 0 {
		return model.SessionInput{}, invalid("duration must not be negative")
	}
	if r.RawText == nil || *r.RawText == "" {
		return model.SessionInput{}, invalid("raw_text is required")
	}
	if r.InputText == nil || *r.InputText == "" {
		return model.SessionInput{}, invalid("input_text is required")
	}

	rawLen := utf8.RuneCountInString(*r.RawText)
	errs := make([]model.CharacterError, 0, len(r.ErrorLog))
	for i, entry := range r.ErrorLog {
		if entry.CharIndex == nil {
			return model.SessionInput{}, invalid("error_log.%d.char_index is required", i)
		}
		if *entry.CharIndex < 0 || *entry.CharIndex >= rawLen {
			return model.SessionInput{}, invalid("error_log.%d.char_index %d is outside raw_text", i, *entry.CharIndex)
		}
		expected := deref(entry.Expected)
		actual := deref(entry.Actual)
		if utf8.RuneCountInString(expected) > 1 {
			return model.SessionInput{}, invalid("error_log.%d.expected must be a single character", i)
		}
		if utf8.RuneCountInString(actual) > 1 {
			return model.SessionInput{}, invalid("error_log.%d.actual must be a single character", i)
		}
		if expected == "" || actual == "" || expected == actual {
			continue
		}
		errs = append(errs, model.CharacterError{
			CharIndex: *entry.CharIndex,
			Expected:  expected,
			Actual:    actual,
		})
	}

	return model.SessionInput{
		TestType:  testType,
		WPM:       *r.WPM,
		Accuracy:  *r.Accuracy,
		Errors:    *r.Errors,
		Duration:  *r.Duration,
		RawText:   *r.RawText,
		InputText: *r.InputText,
		ErrorLog:  errs,
	}, nil
}

func checkNumber(name string, v *float64, max float64) error {
	if v == nil {
		return invalid("%s is required", name)
	}
	if math.IsNaN(*v) || *v < 0 || *v > max {
		return invalid("%s is out of range", name)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

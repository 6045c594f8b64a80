package service

import (
	"errors"
	"testing"

	"github.com/verte-zerg/typist/internal/model"
)

func ptr[T any](v T) *T { return &v }

func validRequest() ResultRequest {
	return ResultRequest{
		WPM:       ptr(55.5),
		Accuracy:  ptr(96.0),
		Errors:    ptr(1),
		Duration:  ptr(60),
		RawText:   ptr("кот дом"),
		InputText: ptr("кот дим"),
		ErrorLog: []ErrorEntry{
			{CharIndex: ptr(5), Expected: ptr("о"), Actual: ptr("и")},
		},
	}
}

func TestValidateAcceptsSubmission(t *testing.T) {
	in, err := validRequest().Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.TestType != model.TestTime {
		t.Fatalf("expected default test type, got %q", in.TestType)
	}
	if in.WPM != 55.5 || in.Accuracy != 96 || in.Errors != 1 || in.Duration != 60 {
		t.Fatalf("unexpected input: %+v", in)
	}
	want := model.CharacterError{CharIndex: 5, Expected: "о", Actual: "и"}
	if len(in.ErrorLog) != 1 || in.ErrorLog[0] != want {
		t.Fatalf("unexpected error log: %+v", in.ErrorLog)
	}
}

func TestValidateDropsIncompleteEntries(t *testing.T) {
	req := validRequest()
	req.TestType = "adaptive"
	req.ErrorLog = []ErrorEntry{
		{CharIndex: ptr(0), Expected: nil, Actual: ptr("x")},
		{CharIndex: ptr(1), Expected: ptr("о"), Actual: ptr("")},
		{CharIndex: ptr(2), Expected: ptr("т"), Actual: ptr("т")},
		{CharIndex: ptr(4), Expected: ptr("д"), Actual: ptr("л")},
	}
	in, err := req.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.TestType != model.TestAdaptive {
		t.Fatalf("expected adaptive test type, got %q", in.TestType)
	}
	if len(in.ErrorLog) != 1 || in.ErrorLog[0].Expected != "д" {
		t.Fatalf("expected only the complete mismatch to remain, got %+v", in.ErrorLog)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ResultRequest)
	}{
		{"missing wpm", func(r *ResultRequest) { r.WPM = nil }},
		{"negative wpm", func(r *ResultRequest) { r.WPM = ptr(-1.0) }},
		{"missing accuracy", func(r *ResultRequest) { r.Accuracy = nil }},
		{"accuracy over 100", func(r *ResultRequest) { r.Accuracy = ptr(100.5) }},
		{"missing errors", func(r *ResultRequest) { r.Errors = nil }},
		{"negative errors", func(r *ResultRequest) { r.Errors = ptr(-2) }},
		{"missing duration", func(r *ResultRequest) { r.Duration = nil }},
		{"missing raw text", func(r *ResultRequest) { r.RawText = nil }},
		{"empty raw text", func(r *ResultRequest) { r.RawText = ptr("") }},
		{"missing input text", func(r *ResultRequest) { r.InputText = nil }},
		{"unknown test type", func(r *ResultRequest) { r.TestType = "marathon" }},
		{"missing char index", func(r *ResultRequest) { r.ErrorLog[0].CharIndex = nil }},
		{"negative char index", func(r *ResultRequest) { r.ErrorLog[0].CharIndex = ptr(-1) }},
		{"char index past end", func(r *ResultRequest) { r.ErrorLog[0].CharIndex = ptr(7) }},
		{"long expected", func(r *ResultRequest) { r.ErrorLog[0].Expected = ptr("ок") }},
		{"long actual", func(r *ResultRequest) { r.ErrorLog[0].Actual = ptr("ab") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			if _, err := req.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateCharIndexCountsRunes(t *testing.T) {
	req := validRequest()
	// "кот дом" is 7 runes but 13 bytes; index 6 is the last rune.
	req.ErrorLog[0].CharIndex = ptr(6)
	if _, err := req.Validate(); err != nil {
		t.Fatalf("last rune index should be valid: %v", err)
	}
}

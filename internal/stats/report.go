package stats

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typist/internal/model"
)

// ReportSource provides the per-user data a report is built from.
type ReportSource interface {
	UserStat(ctx context.Context, userID int64) (model.UserStat, error)
	FrequentErrors(ctx context.Context, userID int64, limit int) ([]model.ErrorFrequency, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Stat   model.UserStat
	Errors []model.ErrorFrequency
}

// BuildReport loads a user's stats and top error characters.
func BuildReport(ctx context.Context, src ReportSource, userID int64, top int) (Report, error) {
	stat, err := src.UserStat(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	errs, err := src.FrequentErrors(ctx, userID, top)
	if err != nil {
		return Report{}, err
	}
	return Report{Stat: stat, Errors: errs}, nil
}

// RenderSummary prints the aggregate stats of a report.
func RenderSummary(w io.Writer, r Report) error {
	if r.Stat.TotalTests == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Tests: %d\n", r.Stat.TotalTests); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best WPM: %.2f\n", r.Stat.BestWPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.2f%%\n", r.Stat.AvgAccuracy); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderErrorTable prints the most frequently mistyped characters.
func RenderErrorTable(w io.Writer, errs []model.ErrorFrequency) error {
	if len(errs) == 0 {
		_, err := fmt.Fprintln(w, "No error data yet.")
		return err
	}
	type ranked struct {
		rank int
		model.ErrorFrequency
	}
	rows := make([]ranked, len(errs))
	for i, e := range errs {
		rows[i] = ranked{rank: i + 1, ErrorFrequency: e}
	}
	return writeTable(w, rows, []column[ranked]{
		{title: "Rank", right: true, value: func(r ranked) string { return strconv.Itoa(r.rank) }},
		{title: "Char", value: func(r ranked) string { return charLabel(r.Expected) }},
		{title: "Mistakes", right: true, value: func(r ranked) string { return strconv.Itoa(r.Total) }},
	})
}

// RenderSessions prints stored sessions, newest first.
func RenderSessions(w io.Writer, sessions []model.TypingSession) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	return writeTable(w, sessions, []column[model.TypingSession]{
		{title: "Date", value: func(s model.TypingSession) string { return s.CreatedAt.Local().Format("2006-01-02 15:04") }},
		{title: "Type", value: func(s model.TypingSession) string { return string(s.TestType) }},
		{title: "WPM", right: true, value: func(s model.TypingSession) string { return strconv.FormatFloat(s.WPM, 'f', 1, 64) }},
		{title: "Accuracy", right: true, value: func(s model.TypingSession) string { return strconv.FormatFloat(s.Accuracy, 'f', 1, 64) + "%" }},
		{title: "Errors", right: true, value: func(s model.TypingSession) string { return strconv.Itoa(s.Errors) }},
		{title: "Duration", right: true, value: func(s model.TypingSession) string { return strconv.Itoa(s.Duration) + "s" }},
	})
}

func charLabel(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\t":
		return "<tab>"
	case "\n":
		return "<enter>"
	}
	return ch
}

// column renders one field of T. Widths are measured in terminal cells so
// Cyrillic and wide characters line up.
type column[T any] struct {
	title string
	right bool
	value func(T) string
}

// writeTable prints a title line and one line per item, separated by single
// spaces, with trailing blanks trimmed.
func writeTable[T any](w io.Writer, items []T, cols []column[T]) error {
	cells := make([][]string, len(items)+1)
	widths := make([]int, len(cols))
	cells[0] = make([]string, len(cols))
	for j, col := range cols {
		cells[0][j] = col.title
		widths[j] = runewidth.StringWidth(col.title)
	}
	for i, item := range items {
		line := make([]string, len(cols))
		for j, col := range cols {
			line[j] = col.value(item)
			widths[j] = max(widths[j], runewidth.StringWidth(line[j]))
		}
		cells[i+1] = line
	}

	var b strings.Builder
	for _, line := range cells {
		b.Reset()
		for j, cell := range line {
			if j > 0 {
				b.WriteByte(' ')
			}
			if cols[j].right {
				b.WriteString(runewidth.FillLeft(cell, widths[j]))
			} else {
				b.WriteString(runewidth.FillRight(cell, widths[j]))
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

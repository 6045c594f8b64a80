package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/typist/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "typist.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func session(accuracy, wpm float64, errs ...model.CharacterError) model.SessionInput {
	return model.SessionInput{
		TestType:  model.TestTime,
		WPM:       wpm,
		Accuracy:  accuracy,
		Errors:    len(errs),
		Duration:  60,
		RawText:   "кот собака дом",
		InputText: "кот сабака дом",
		ErrorLog:  errs,
	}
}

func mistake(index int, expected, actual string) model.CharacterError {
	return model.CharacterError{CharIndex: index, Expected: expected, Actual: actual}
}

func TestSaveSessionStoresErrorsAndStats(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	saved, err := st.SaveSession(ctx, 7, session(92.5, 61, mistake(5, "о", "а")))
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if saved.ID == 0 || saved.UserID != 7 || saved.CreatedAt.IsZero() {
		t.Fatalf("unexpected saved session: %+v", saved)
	}

	errs, err := st.ErrorLog(ctx, saved.ID)
	if err != nil {
		t.Fatalf("error log: %v", err)
	}
	if len(errs) != 1 || errs[0].Expected != "о" || errs[0].Actual != "а" || errs[0].CharIndex != 5 {
		t.Fatalf("unexpected error log: %+v", errs)
	}

	stat, err := st.UserStat(ctx, 7)
	if err != nil {
		t.Fatalf("user stat: %v", err)
	}
	want := model.UserStat{UserID: 7, BestWPM: 61, AvgAccuracy: 92.5, TotalTests: 1}
	if stat != want {
		t.Fatalf("unexpected stat: %+v", stat)
	}
}

func TestUserStatWithoutSessions(t *testing.T) {
	st := openTestStore(t)
	stat, err := st.UserStat(context.Background(), 42)
	if err != nil {
		t.Fatalf("user stat: %v", err)
	}
	if stat != (model.UserStat{UserID: 42}) {
		t.Fatalf("expected zero stat, got %+v", stat)
	}
}

func TestRetentionEvictsOldestSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	accuracies := []float64{50, 60, 70, 80, 90, 95, 100}
	var ids []int64
	for i, acc := range accuracies {
		saved, err := st.SaveSession(ctx, 1, session(acc, float64(40+i), mistake(0, "к", "л")))
		if err != nil {
			t.Fatalf("save session %d: %v", i, err)
		}
		ids = append(ids, saved.ID)
	}
	// Another user's history must be untouched.
	if _, err := st.SaveSession(ctx, 2, session(10, 10)); err != nil {
		t.Fatalf("save other user: %v", err)
	}

	sessions, err := st.ListSessions(ctx, 1)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != DefaultRetention {
		t.Fatalf("expected %d sessions, got %d", DefaultRetention, len(sessions))
	}
	for i, s := range sessions {
		if s.ID != ids[len(ids)-1-i] {
			t.Fatalf("expected newest sessions to remain, got ids %v", sessionIDs(sessions))
		}
	}

	stat, err := st.UserStat(ctx, 1)
	if err != nil {
		t.Fatalf("user stat: %v", err)
	}
	wantAvg := (70.0 + 80 + 90 + 95 + 100) / 5
	if math.Abs(stat.AvgAccuracy-wantAvg) > 1e-9 {
		t.Fatalf("expected avg accuracy %.2f, got %.2f", wantAvg, stat.AvgAccuracy)
	}
	if stat.TotalTests != len(accuracies) {
		t.Fatalf("expected total tests %d, got %d", len(accuracies), stat.TotalTests)
	}
	if stat.BestWPM != 46 {
		t.Fatalf("expected best wpm 46, got %v", stat.BestWPM)
	}

	// Error rows of evicted sessions are gone with them.
	freqs, err := st.FrequentErrors(ctx, 1, 5)
	if err != nil {
		t.Fatalf("frequent errors: %v", err)
	}
	if len(freqs) != 1 || freqs[0].Total != DefaultRetention {
		t.Fatalf("expected %d retained errors, got %+v", DefaultRetention, freqs)
	}
	for _, id := range ids[:2] {
		errs, err := st.ErrorLog(ctx, id)
		if err != nil {
			t.Fatalf("error log: %v", err)
		}
		if len(errs) != 0 {
			t.Fatalf("expected evicted session %d to have no errors, got %d", id, len(errs))
		}
	}

	other, err := st.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("list other sessions: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("expected other user's session to remain, got %d", len(other))
	}
}

func TestCustomRetention(t *testing.T) {
	st, err := Open(Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "typist.db"), Retention: 2})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := st.SaveSession(ctx, 1, session(float64(i*10), 50)); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}
	sessions, err := st.ListSessions(ctx, 1)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	stat, err := st.UserStat(ctx, 1)
	if err != nil {
		t.Fatalf("user stat: %v", err)
	}
	if stat.AvgAccuracy != 25 {
		t.Fatalf("expected avg 25, got %v", stat.AvgAccuracy)
	}
}

func TestFrequentErrorsRankingAndTieBreak(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// "б" is recorded before "в"; both end with two mistakes.
	first := session(90, 50,
		mistake(0, "б", "п"),
		mistake(1, "в", "ф"),
		mistake(2, "а", "о"),
		mistake(3, "а", "о"),
		mistake(4, "а", "о"),
	)
	second := session(90, 50,
		mistake(0, "в", "ф"),
		mistake(1, "б", "п"),
		mistake(2, "г", "к"),
		mistake(3, "д", "т"),
		mistake(4, "е", "и"),
		mistake(5, "ж", "ш"),
	)
	for _, in := range []model.SessionInput{first, second} {
		if _, err := st.SaveSession(ctx, 3, in); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}

	freqs, err := st.FrequentErrors(ctx, 3, 5)
	if err != nil {
		t.Fatalf("frequent errors: %v", err)
	}
	got := make([]string, 0, len(freqs))
	for _, f := range freqs {
		got = append(got, f.Expected)
	}
	want := []string{"а", "б", "в", "г", "д"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected ranking: %v", got)
	}
	for i := 1; i < len(freqs); i++ {
		if freqs[i].Total > freqs[i-1].Total {
			t.Fatalf("ranking not sorted by frequency: %+v", freqs)
		}
	}

	chars, err := st.ProblemCharacters(ctx, 3, 5)
	if err != nil {
		t.Fatalf("problem characters: %v", err)
	}
	if string(chars) != "абвгд" {
		t.Fatalf("unexpected problem characters: %q", string(chars))
	}

	empty, err := st.ProblemCharacters(ctx, 99, 5)
	if err != nil {
		t.Fatalf("problem characters: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no characters for user without errors, got %q", string(empty))
	}
}

func TestSaveSessionIsAtomic(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.SaveSession(ctx, 5, session(80, 40)); err != nil {
		t.Fatalf("save session: %v", err)
	}
	// The empty expected char violates the error_logs check after the session row was inserted.
	bad := session(10, 99, mistake(0, "к", "л"), mistake(1, "", "x"))
	if _, err := st.SaveSession(ctx, 5, bad); err == nil {
		t.Fatalf("expected save to fail")
	}

	sessions, err := st.ListSessions(ctx, 5)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected failed save to leave 1 session, got %d", len(sessions))
	}
	stat, err := st.UserStat(ctx, 5)
	if err != nil {
		t.Fatalf("user stat: %v", err)
	}
	if stat.TotalTests != 1 || stat.BestWPM != 40 || stat.AvgAccuracy != 80 {
		t.Fatalf("stats changed by failed save: %+v", stat)
	}
	freqs, err := st.FrequentErrors(ctx, 5, 5)
	if err != nil {
		t.Fatalf("frequent errors: %v", err)
	}
	if len(freqs) != 0 {
		t.Fatalf("expected no error rows, got %+v", freqs)
	}
}

func TestSaveSessionCanceledContext(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := st.SaveSession(ctx, 1, session(90, 50)); err == nil {
		t.Fatalf("expected canceled context to fail")
	}
	sessions, err := st.ListSessions(context.Background(), 1)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}

func TestCreatedAtUsesClock(t *testing.T) {
	st := openTestStore(t)
	fixed := time.Date(2025, 5, 4, 16, 42, 0, 0, time.UTC)
	st.now = func() time.Time { return fixed }
	if _, err := st.SaveSession(context.Background(), 1, session(90, 50)); err != nil {
		t.Fatalf("save session: %v", err)
	}
	sessions, err := st.ListSessions(context.Background(), 1)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if !sessions[0].CreatedAt.Equal(fixed) {
		t.Fatalf("expected created_at %v, got %v", fixed, sessions[0].CreatedAt)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	if got := pg.rebind("SELECT a FROM t WHERE x = ? AND y IN (?, ?)"); got != "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)" {
		t.Fatalf("unexpected postgres query: %q", got)
	}
	lite := &Store{driver: DriverSQLite}
	if got := lite.rebind("x = ?"); got != "x = ?" {
		t.Fatalf("sqlite query must be unchanged, got %q", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func sessionIDs(sessions []model.TypingSession) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("disk gone") }

func TestCloseFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	st, err := Open(Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "typist.db"), Log: zap.New(core)})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	st.closeLogged(failingCloser{}, "rows")
	entries := logs.FilterMessage("failed to close rows").All()
	if len(entries) != 1 {
		t.Fatalf("expected one close warning, got %d", logs.Len())
	}
	if got := entries[0].ContextMap()["error"]; got != "disk gone" {
		t.Fatalf("unexpected logged error %v", got)
	}
}

func TestOpenReportsMigrationFailure(t *testing.T) {
	// A directory cannot be opened as a database file.
	if _, err := Open(Options{Driver: DriverSQLite, DSN: t.TempDir()}); err == nil {
		t.Fatalf("expected open to fail")
	}
}

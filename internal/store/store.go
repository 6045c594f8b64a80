// Package store handles SQL persistence of typing sessions and user stats.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver.
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver.

	"github.com/verte-zerg/typist/internal/model"
	"github.com/verte-zerg/typist/internal/stats"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultRetention is the number of sessions kept per user.
const DefaultRetention = 5

// Options configures Open.
type Options struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string
	// DSN is a file path for SQLite or a connection string for PostgreSQL.
	DSN string
	// Retention caps stored sessions per user; DefaultRetention when <= 0.
	Retention int
	// Log receives errors that cannot be returned to the caller; nil discards them.
	Log *zap.Logger
}

// Store wraps SQL access for session data.
type Store struct {
	db        *sql.DB
	driver    string
	retention int
	now       func() time.Time
	log       *zap.Logger
}

// Open opens or creates the database and applies migrations.
func Open(opts Options) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	dsn := opts.DSN
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn is empty")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	store := &Store{db: db, driver: driver, retention: retention, now: time.Now, log: log}
	if err := store.migrate(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Retention returns the number of sessions kept per user.
func (s *Store) Retention() int {
	return s.retention
}

func (s *Store) migrate() error {
	stmts := sqliteSchema
	if s.driver == DriverPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// closeLogged closes c after its results were consumed and logs a failure.
func (s *Store) closeLogged(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		s.log.Warn("failed to close "+what, zap.Error(err))
	}
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// SaveSession stores a session with its error log, evicts the user's sessions
// beyond the retention limit and upserts the user's stats, all in one transaction.
func (s *Store) SaveSession(ctx context.Context, userID int64, in model.SessionInput) (model.TypingSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TypingSession{}, err
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback()
	}()

	createdAt := s.now().UTC()
	stamp := createdAt.Format(time.RFC3339Nano)

	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`),
		userID, stamp,
	); err != nil {
		return model.TypingSession{}, fmt.Errorf("ensure user: %w", err)
	}

	session := model.TypingSession{
		UserID:    userID,
		TestType:  in.TestType,
		WPM:       in.WPM,
		Accuracy:  in.Accuracy,
		Errors:    in.Errors,
		Duration:  in.Duration,
		RawText:   in.RawText,
		InputText: in.InputText,
		CreatedAt: createdAt,
	}
	err = tx.QueryRowContext(ctx,
		s.rebind(`INSERT INTO typing_results (user_id, test_type, wpm, accuracy, errors, duration, raw_text, input_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		userID,
		string(in.TestType),
		in.WPM,
		in.Accuracy,
		in.Errors,
		in.Duration,
		in.RawText,
		in.InputText,
		stamp,
	).Scan(&session.ID)
	if err != nil {
		return model.TypingSession{}, fmt.Errorf("insert session: %w", err)
	}

	if len(in.ErrorLog) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			s.rebind(`INSERT INTO error_logs (result_id, char_index, expected, actual) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return model.TypingSession{}, fmt.Errorf("prepare error log: %w", err)
		}
		defer s.closeLogged(stmt, "error log statement")
		for _, ce := range in.ErrorLog {
			if _, err := stmt.ExecContext(ctx, session.ID, ce.CharIndex, ce.Expected, ce.Actual); err != nil {
				return model.TypingSession{}, fmt.Errorf("insert error log: %w", err)
			}
		}
	}

	if err := s.evict(ctx, tx, userID); err != nil {
		return model.TypingSession{}, err
	}

	prev, err := userStat(ctx, tx, s.rebind, userID)
	if err != nil {
		return model.TypingSession{}, fmt.Errorf("load stats: %w", err)
	}
	accuracies, err := s.recentAccuracies(ctx, tx, userID)
	if err != nil {
		return model.TypingSession{}, fmt.Errorf("load recent accuracy: %w", err)
	}
	next := stats.NextUserStat(prev, in.WPM, accuracies)
	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO user_stats (user_id, best_wpm, avg_accuracy, total_tests) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			best_wpm = excluded.best_wpm,
			avg_accuracy = excluded.avg_accuracy,
			total_tests = excluded.total_tests`),
		userID, next.BestWPM, next.AvgAccuracy, next.TotalTests,
	); err != nil {
		return model.TypingSession{}, fmt.Errorf("upsert stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.TypingSession{}, err
	}
	return session, nil
}

// evict deletes sessions (and their error rows) beyond the newest retention ones.
func (s *Store) evict(ctx context.Context, tx *sql.Tx, userID int64) error {
	const keep = `SELECT id FROM typing_results WHERE user_id = ? ORDER BY id DESC LIMIT ?`
	if _, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM error_logs WHERE result_id IN (
			SELECT id FROM typing_results WHERE user_id = ? AND id NOT IN (`+keep+`))`),
		userID, userID, s.retention,
	); err != nil {
		return fmt.Errorf("evict error logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM typing_results WHERE user_id = ? AND id NOT IN (`+keep+`)`),
		userID, userID, s.retention,
	); err != nil {
		return fmt.Errorf("evict sessions: %w", err)
	}
	return nil
}

func (s *Store) recentAccuracies(ctx context.Context, tx *sql.Tx, userID int64) ([]float64, error) {
	rows, err := tx.QueryContext(ctx,
		s.rebind(`SELECT accuracy FROM typing_results WHERE user_id = ? ORDER BY id DESC LIMIT ?`),
		userID, s.retention)
	if err != nil {
		return nil, err
	}
	defer s.closeLogged(rows, "rows")

	var out []float64
	for rows.Next() {
		var acc float64
		if err := rows.Scan(&acc); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userStat(ctx context.Context, q queryRower, rebind func(string) string, userID int64) (model.UserStat, error) {
	stat := model.UserStat{UserID: userID}
	err := q.QueryRowContext(ctx,
		rebind(`SELECT best_wpm, avg_accuracy, total_tests FROM user_stats WHERE user_id = ?`),
		userID,
	).Scan(&stat.BestWPM, &stat.AvgAccuracy, &stat.TotalTests)
	if errors.Is(err, sql.ErrNoRows) {
		return stat, nil
	}
	if err != nil {
		return model.UserStat{}, err
	}
	return stat, nil
}

// UserStat returns the user's stats, or a zero stat when none were recorded.
func (s *Store) UserStat(ctx context.Context, userID int64) (model.UserStat, error) {
	return userStat(ctx, s.db, s.rebind, userID)
}

// FrequentErrors ranks the user's expected characters by mistake count.
// Equal counts are ordered by first occurrence.
func (s *Store) FrequentErrors(ctx context.Context, userID int64, limit int) ([]model.ErrorFrequency, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT e.expected, COUNT(*) AS total, MIN(e.id) AS first_seen
	FROM error_logs e
	JOIN typing_results r ON r.id = e.result_id
	WHERE r.user_id = ?
	GROUP BY e.expected
	ORDER BY total DESC, first_seen ASC
	LIMIT ?`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID, limit)
	if err != nil {
		return nil, err
	}
	defer s.closeLogged(rows, "rows")

	result := []model.ErrorFrequency{}
	for rows.Next() {
		var f model.ErrorFrequency
		if err := rows.Scan(&f.Expected, &f.Total, &f.FirstSeen); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ProblemCharacters returns up to limit distinct characters the user mistypes most.
func (s *Store) ProblemCharacters(ctx context.Context, userID int64, limit int) ([]rune, error) {
	freqs, err := s.FrequentErrors(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return stats.ProblemChars(freqs, limit), nil
}

// ListSessions returns the user's stored sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, userID int64) ([]model.TypingSession, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, user_id, test_type, wpm, accuracy, errors, duration, raw_text, input_text, created_at
		FROM typing_results
		WHERE user_id = ?
		ORDER BY id DESC`),
		userID)
	if err != nil {
		return nil, err
	}
	defer s.closeLogged(rows, "rows")

	var sessions []model.TypingSession
	for rows.Next() {
		var ts model.TypingSession
		var testType, createdAt string
		if err := rows.Scan(&ts.ID, &ts.UserID, &testType, &ts.WPM, &ts.Accuracy, &ts.Errors, &ts.Duration, &ts.RawText, &ts.InputText, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		ts.TestType = model.TestType(testType)
		ts.CreatedAt = parsed
		sessions = append(sessions, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ErrorLog returns the error rows of a session ordered by position.
func (s *Store) ErrorLog(ctx context.Context, sessionID int64) ([]model.CharacterError, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, result_id, char_index, expected, actual FROM error_logs WHERE result_id = ? ORDER BY char_index, id`),
		sessionID)
	if err != nil {
		return nil, err
	}
	defer s.closeLogged(rows, "rows")

	var out []model.CharacterError
	for rows.Next() {
		var ce model.CharacterError
		if err := rows.Scan(&ce.ID, &ce.SessionID, &ce.CharIndex, &ce.Expected, &ce.Actual); err != nil {
			return nil, err
		}
		out = append(out, ce)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

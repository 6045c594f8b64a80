package store

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS typing_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		test_type TEXT NOT NULL,
		wpm REAL NOT NULL,
		accuracy REAL NOT NULL,
		errors INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		raw_text TEXT NOT NULL,
		input_text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS error_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_id INTEGER NOT NULL REFERENCES typing_results(id) ON DELETE CASCADE,
		char_index INTEGER NOT NULL CHECK (char_index >= 0),
		expected TEXT NOT NULL CHECK (length(expected) = 1),
		actual TEXT NOT NULL CHECK (length(actual) = 1)
	);`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		best_wpm REAL NOT NULL DEFAULT 0,
		avg_accuracy REAL NOT NULL DEFAULT 0,
		total_tests INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_typing_results_user ON typing_results(user_id, id);`,
	`CREATE INDEX IF NOT EXISTS idx_error_logs_result ON error_logs(result_id);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS typing_results (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		test_type TEXT NOT NULL,
		wpm DOUBLE PRECISION NOT NULL,
		accuracy DOUBLE PRECISION NOT NULL,
		errors INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		raw_text TEXT NOT NULL,
		input_text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS error_logs (
		id BIGSERIAL PRIMARY KEY,
		result_id BIGINT NOT NULL REFERENCES typing_results(id) ON DELETE CASCADE,
		char_index INTEGER NOT NULL CHECK (char_index >= 0),
		expected TEXT NOT NULL CHECK (length(expected) = 1),
		actual TEXT NOT NULL CHECK (length(actual) = 1)
	);`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		best_wpm DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_tests INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_typing_results_user ON typing_results(user_id, id);`,
	`CREATE INDEX IF NOT EXISTS idx_error_logs_result ON error_logs(result_id);`,
}

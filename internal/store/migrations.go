package store

// runMigrations executes all database migrations in order.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Custom and overridden chord shapes; positions are stored as JSON
		`CREATE TABLE IF NOT EXISTS chords (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			display TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'beginner'
				CHECK(difficulty IN ('beginner', 'intermediate', 'advanced')),
			positions TEXT NOT NULL DEFAULT '[]',
			tips TEXT NOT NULL DEFAULT '',
			barre INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per verification
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			expected TEXT NOT NULL,
			detected TEXT NOT NULL,
			correct INTEGER NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Finished practice sessions
		`CREATE TABLE IF NOT EXISTS session_results (
			session_id TEXT PRIMARY KEY,
			difficulty TEXT NOT NULL,
			score INTEGER NOT NULL,
			completed TEXT NOT NULL DEFAULT '[]',
			started_at DATETIME NOT NULL,
			finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_attempts_session_id ON attempts(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

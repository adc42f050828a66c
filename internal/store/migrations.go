package store

func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per finished tracking session.
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			exercise TEXT NOT NULL DEFAULT '',
			manual INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			evaluated_frames INTEGER NOT NULL DEFAULT 0,
			correct_frames INTEGER NOT NULL DEFAULT 0,
			mean_progress REAL NOT NULL DEFAULT 0
		)`,

		// Per-joint state counts of a session.
		`CREATE TABLE IF NOT EXISTS session_joints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			joint TEXT NOT NULL,
			good INTEGER NOT NULL DEFAULT 0,
			warning INTEGER NOT NULL DEFAULT 0,
			danger INTEGER NOT NULL DEFAULT 0,
			dead_zone INTEGER NOT NULL DEFAULT 0,
			mean_angle REAL NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_session_joints_session_id ON session_joints(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

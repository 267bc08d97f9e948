package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Poses table - stores reference dance pose metadata
		`CREATE TABLE IF NOT EXISTS poses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			difficulty TEXT NOT NULL CHECK(difficulty IN ('easy', 'medium', 'hard')),
			tags TEXT NOT NULL DEFAULT '[]',
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Pose keypoints table - stores the 33 body keypoints per pose
		`CREATE TABLE IF NOT EXISTS pose_keypoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			keypoint_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			confidence REAL NOT NULL,
			name TEXT NOT NULL DEFAULT ''
		)`,

		// Index for keypoint lookups by pose
		`CREATE INDEX IF NOT EXISTS idx_pose_keypoints_pose_id ON pose_keypoints(pose_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

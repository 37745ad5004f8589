package store

import "database/sql"

// SetMetadata upserts a key-value pair in the screen_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO screen_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM screen_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetIngestedFileHash returns the recorded content hash for an ingested
// ticket file, or empty string when the file was never ingested.
func (s *Store) GetIngestedFileHash(path string) (string, error) {
	return s.GetMetadata("ingest:" + path)
}

// SetIngestedFileHash records the content hash of an ingested ticket file.
func (s *Store) SetIngestedFileHash(path, hash string) error {
	return s.SetMetadata("ingest:"+path, hash)
}

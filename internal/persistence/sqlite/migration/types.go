package migration

import "time"

// Migration is a single versioned schema change.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration records a migration already executed against the database.
type AppliedMigration struct {
	Version   string
	Checksum  string
	AppliedAt time.Time
}

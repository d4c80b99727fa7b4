// Package migration applies versioned SQL schema files to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_create_reservations.sql") and are read from an fs.FS, normally
// an embedded directory. Applied versions are tracked in schema_migrations and
// each migration runs in its own transaction.
//
//	manager := migration.NewManager(db, migrationsFS, "migrations", logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration

// Package migration applies versioned SQL files to a SQLite database.
//
// Files are named {version}_{description}.sql and are read from an fs.FS,
// usually an embedded directory. Applied versions are tracked in the
// schema_migrations table together with the file checksum so that an edited
// migration is detected on the next start.
package migration

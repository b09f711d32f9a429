package postgres

import "embed"

// Migrations holds the embedded schema migration files, applied at startup
// via database.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations containing the .sql files.
const MigrationsDir = "migrations"

// Package schemas provides embedded SQL migration files, one directory per driver.
package schemas

import "embed"

// Migrations contains the SQL migration files under migrations/<driver>/.
//
//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

// Package migrations embeds the SQL migration files into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

// FS returns the embedded migration files.
func FS() embed.FS {
	return migrationsFS
}

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}

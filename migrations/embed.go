// Package migrations embeds SQL migration files into the binary so the
// connector can migrate its local store without files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}

package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"

	cfg "gitlab.com/vtindex/backoffice_api/config"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies pending schema migrations against the writer node.
// Runs before the server starts listening; a dirty version aborts the boot.
func Migrate(config cfg.Config) {
	writer := config.DatabaseCluster.Writer
	uri := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		writer.Username, writer.Password, writer.Host, writer.Port, writer.Name, writer.SSLmode)

	m, err := migrate.New("file://./db/migrations", uri)
	if err != nil {
		log.Fatal().Err(err).Str("section", "migrate").Msg("Unable to open the writer database for migration")
		return
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		if dirty, ok := err.(migrate.ErrDirty); ok {
			log.Fatal().Err(err).Str("section", "migrate").Int("version", dirty.Version).Msg("Schema is dirty, fix the failed migration before restarting")
		} else {
			log.Fatal().Err(err).Str("section", "migrate").Msg("Unable to apply migrations")
		}
		return
	}
	log.Info().Str("section", "migrate").Msg("Schema is up to date")
}

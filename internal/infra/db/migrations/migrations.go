// Package migrations embeds the Postgres schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var files embed.FS

// New opens a migrator over the embedded scripts. Callers must Close it.
func New(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(databaseURL string, log *zerolog.Logger) error {
	m, err := New(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrator(m, log)

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("database schema already up to date")
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	default:
		v, _, _ := m.Version()
		log.Info().Uint("version", v).Msg("database migrations applied")
	}
	return nil
}

func closeMigrator(m *migrate.Migrate, log *zerolog.Logger) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("closing migrator")
	}
}

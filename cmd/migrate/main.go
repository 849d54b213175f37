// File: cmd/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"saas-starter-billing/internal/config"
	"saas-starter-billing/internal/infra/db/migrations"
	"saas-starter-billing/internal/infra/logging"
)

func main() {
	_ = godotenv.Load()

	dbURL := flag.String("database", os.Getenv("DATABASE_URL"), "postgres connection url (defaults to $DATABASE_URL)")
	flag.Usage = printUsage
	flag.Parse()

	log := logging.New(config.LogConfig{Level: "info", Format: "console"}, false)

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	if *dbURL == "" {
		log.Fatal().Msg("no database url: pass -database or set DATABASE_URL")
	}

	m, err := migrations.New(*dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("closing migrator")
		}
	}()

	switch args[0] {
	case "up":
		switch err := m.Up(); {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info().Msg("no change: schema already up to date")
		case err != nil:
			log.Fatal().Err(err).Msg("apply migrations")
		default:
			log.Info().Msg("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatal().Err(err).Msg("roll back last migration")
		}
		log.Info().Msg("last migration rolled back")

	case "goto":
		if len(args) < 2 {
			log.Fatal().Msg("goto needs a version number")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			log.Fatal().Err(err).Str("version", args[1]).Msg("invalid version")
		}
		switch err := m.Migrate(uint(version)); {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info().Uint64("version", version).Msg("no change: already at version")
		case err != nil:
			log.Fatal().Err(err).Uint64("version", version).Msg("migrate to version")
		default:
			log.Info().Uint64("version", version).Msg("migrated")
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info().Msg("no migrations applied yet")
		case err != nil:
			log.Fatal().Err(err).Msg("read version")
		default:
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current schema version")
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: migrate [-database URL] <command>")
	fmt.Println("commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - print the current version")
}

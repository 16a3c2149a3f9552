package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Str("component", "migrations").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Str("component", "migrations").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies all pending schema migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embeddedMigrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Msg("Migrations completed successfully")
	return nil
}

// MigrateURL opens dsn and applies migrations.
func MigrateURL(dsn string) error {
	db, err := NewPostgresConnection(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return Migrate(db.DB)
}

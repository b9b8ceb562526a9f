// Command migrator applies schema migrations from a directory. The server
// applies the embedded copy itself when sql_migrate is set.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"

	"github.com/niksmo/storefront/internal/adapter/storage"
)

const (
	dsnFlag           = "dsn"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"
)

type flags struct {
	dsn            string
	migrationsPath string
	down           bool
}

func main() {
	f := getFlagsValues()
	validateFlags(f)
	makeMigrations(f)
}

type migrationLogger struct {
	logger *slog.Logger
}

func (ml migrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (migrationLogger) Verbose() bool {
	return true
}

func getFlagsValues() flags {
	dsn := pflag.StringP(dsnFlag, "d", os.Getenv("STOREFRONT_SQL_DB"), "postgres dsn")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "migrations", "migrations directory")
	down := pflag.Bool(downFlag, false, "roll back one migration")
	pflag.Parse()
	return flags{*dsn, *migrationsPath, *down}
}

func validateFlags(f flags) {
	var errs []error

	if f.dsn == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", dsnFlag))
	}

	if f.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

func makeMigrations(f flags) {
	dbURL, err := storage.MigrateURL(f.dsn)
	if err != nil {
		slog.Error("invalid dsn", "err", err)
		fallDown()
	}

	m, err := migrate.New("file://"+f.migrationsPath, dbURL)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log = migrationLogger{slog.Default()}

	if f.down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied")
}

func fallDown() {
	os.Exit(2)
}

package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrations embed.FS

// embedFSDriver serves the embedded migrations. The URL host selects the
// dialect directory, e.g. "embed://sqlite".
type embedFSDriver struct {
	httpfs.PartialDriver
}

func init() {
	source.Register("embed", &embedFSDriver{})
}

func (d *embedFSDriver) Open(rawURL string) (source.Driver, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	nd := &embedFSDriver{}
	err = nd.PartialDriver.Init(http.FS(migrations), u.Host)
	if err != nil {
		return nil, err
	}

	return nd, nil
}

// Migrate applies all pending migrations for the given driver name
// ("postgres" or "sqlite"). The database is left open.
func Migrate(db *sql.DB, driver string) error {
	var (
		d   database.Driver
		err error
	)

	switch driver {
	case "postgres":
		d, err = postgres.WithInstance(db, &postgres.Config{})
	case "sqlite":
		d, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("create driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"embed://"+driver, driver, d)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

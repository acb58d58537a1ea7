package store

import (
	"context"
	"fmt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the Repo backend selected by driver.
func Open(ctx context.Context, driver, sqlitePath, dsn string) (Repo, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, sqlitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

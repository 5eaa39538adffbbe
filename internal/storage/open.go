package storage

import "fmt"

// Open returns the storage for driver. dsn is a file path for sqlite3 and a connection
// string for postgres. An empty driver means sqlite3.
func Open(driver, dsn string) (*SQLStorage, error) {
	switch driver {
	case "", DriverSQLite, "sqlite":
		return NewSQLiteStorage(dsn)
	case DriverPostgres, "postgresql":
		return NewPostgresStorage(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

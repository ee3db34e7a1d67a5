package dbutil

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// DBConfig represents the data needed to connect to a database
type DBConfig struct {
	// DSN is a lib/pq connection string or URL.
	DSN                string
	MaxOpenConnections int
	MaxIdleConnections int
}

// ConnectPostgres opens a connection pool and verifies the server is reachable.
func ConnectPostgres(dbconfig *DBConfig) (*sql.DB, error) {
	if dbconfig.DSN == "" {
		return nil, errors.New("missing DSN for db config")
	}
	connector, err := pq.NewConnector(dbconfig.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "invalid postgres DSN")
	}
	db := sql.OpenDB(connector)
	if dbconfig.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(dbconfig.MaxOpenConnections)
	}
	if dbconfig.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(dbconfig.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}
	return db, nil
}

// Package testsql gives each test its own throwaway Postgres schema.
package testsql

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/sprucehealth/mediaindexer/libs/dbutil"
	"github.com/sprucehealth/mediaindexer/libs/test"
)

type DB struct {
	DB     *sql.DB
	admin  *sql.DB
	schema string
}

// Setup creates a new temporary schema and returns a connection whose search_path points at it.
// It skips the test unless TEST_POSTGRES_DSN is set to a URL style DSN.
func Setup(t *testing.T) *DB {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Missing TEST_POSTGRES_DSN")
	}
	admin, err := dbutil.ConnectPostgres(&dbutil.DBConfig{DSN: dsn})
	test.OK(t, err)

	id, err := randomID()
	test.OK(t, err)
	schema := "test_" + id
	_, err = admin.Exec(`CREATE SCHEMA ` + dbutil.EscapePostgresName(schema))
	test.OK(t, err)

	u, err := url.Parse(dsn)
	test.OK(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	db, err := dbutil.ConnectPostgres(&dbutil.DBConfig{DSN: u.String()})
	if err != nil {
		admin.Exec(`DROP SCHEMA ` + dbutil.EscapePostgresName(schema) + ` CASCADE`)
		t.Fatal(err)
	}
	return &DB{DB: db, admin: admin, schema: schema}
}

// Schema returns the name of the test schema.
func (d *DB) Schema() string {
	return d.schema
}

// Cleanup drops the test schema
func (d *DB) Cleanup(t *testing.T) {
	d.DB.Close()
	if _, err := d.admin.Exec(`DROP SCHEMA ` + dbutil.EscapePostgresName(d.schema) + ` CASCADE`); err != nil {
		t.Log(err)
	}
	d.admin.Close()
}

func randomID() (string, error) {
	var b [8]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return "", err
	}
	return strings.ToLower(hex.EncodeToString(b[:])), nil
}

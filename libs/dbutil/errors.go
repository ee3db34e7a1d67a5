package dbutil

import (
	"github.com/lib/pq"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Postgres error codes
const (
	PostgresUniqueViolation      = "23505"
	PostgresSerializationFailure = "40001"
	PostgresDeadlockDetected     = "40P01"
	PostgresUndefinedTable       = "42P01"
)

// IsPostgresError returns true if the err represents a Postgres error of the provided code
func IsPostgresError(err error, code string) bool {
	e, ok := errors.Cause(err).(*pq.Error)
	if !ok {
		return false
	}
	return string(e.Code) == code
}

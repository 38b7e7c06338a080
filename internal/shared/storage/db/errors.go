package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const invalidTextRepresentation = "22P02"

// IsInvalidText reports whether Postgres rejected a parameter it could not
// parse into the column type, such as a malformed UUID.
func IsInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

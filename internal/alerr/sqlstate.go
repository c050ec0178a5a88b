package alerr

import (
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// SQLState extracts the driver-reported error state from err.
// PostgreSQL drivers (lib/pq, pgx) report a five-character SQLSTATE;
// SQLite reports its extended result code, rendered as "sqlite:<code>".
// Returns empty string when the driver exposes nothing.
func SQLState(err error) string {
	if err == nil {
		return ""
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return "sqlite:" + strconv.Itoa(liteErr.Code())
	}

	return ""
}

package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// uniqueViolationCode is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// uniqueViolation returns the violated constraint name, or "" if err is not
// a unique violation.
func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName
	}
	return ""
}

// Money columns are NUMERIC(15,2). They cross the driver as text so no
// float conversion ever happens.

func numeric(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseNumeric(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

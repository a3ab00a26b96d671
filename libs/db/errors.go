package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	SQLStateUniqueViolation    = "23505"
	SQLStateExclusionViolation = "23P01"
	SQLStateForeignKey         = "23503"
)

func HasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func IsUniqueViolation(err error) bool    { return HasSQLState(err, SQLStateUniqueViolation) }
func IsExclusionViolation(err error) bool { return HasSQLState(err, SQLStateExclusionViolation) }

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

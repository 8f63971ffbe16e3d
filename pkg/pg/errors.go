package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenDBConnection = errors.New("pg.failed_to_open_connection")
	ErrEmptyConnectionString    = errors.New("pg.empty_connection_string")
	ErrHealthcheckFailed        = errors.New("pg.healthcheck_failed")
	ErrFailedToParseDBConfig    = errors.New("pg.failed_to_parse_config")
	ErrFailedToApplyMigrations  = errors.New("pg.failed_to_apply_migrations")
	ErrNoMigrations             = errors.New("pg.no_migrations")
)

// IsNotFoundError reports whether err is pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	_, ok := duplicateKey(err)
	return ok
}

// DuplicateConstraint returns the name of the violated unique constraint,
// or "" when err is not a unique violation.
func DuplicateConstraint(err error) string {
	pgErr, ok := duplicateKey(err)
	if !ok {
		return ""
	}
	return pgErr.ConstraintName
}

func duplicateKey(err error) (*pgconn.PgError, bool) {
	if err == nil {
		return nil, false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr, true
	}
	return nil, false
}

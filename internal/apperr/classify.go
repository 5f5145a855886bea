package apperr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Classify maps err to one of the store error kinds and annotates it with op.
// Errors that are already classified are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: kindFor(err), Op: op, Err: err}
}

func kindFor(err error) Kind {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindReferentialIntegrity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return KindUnavailable
	case strings.Contains(err.Error(), "sql: database is closed"):
		// errDBClosed in database/sql (unexported, same text since go1.0,
		// checked against go1.24).
		return KindUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return postgresKind(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindUnavailable
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteKind(sqliteErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}
	return KindInternal
}

// postgresKind maps SQLSTATE codes. See the PostgreSQL "Error Codes" appendix.
func postgresKind(code string) Kind {
	switch code {
	case "23505":
		return KindDuplicateKey
	case "23503":
		return KindReferentialIntegrity
	case "23502", "23514":
		return KindValidation
	case "57P01", "57P02", "57P03", "57014":
		return KindUnavailable
	}
	switch {
	case strings.HasPrefix(code, "22"):
		return KindValidation
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"):
		return KindUnavailable
	}
	return KindInternal
}

func sqliteKind(err sqlite3.Error) Kind {
	switch err.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return KindDuplicateKey
	case sqlite3.ErrConstraintForeignKey:
		return KindReferentialIntegrity
	case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		return KindValidation
	}
	switch err.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
		return KindUnavailable
	}
	return KindInternal
}

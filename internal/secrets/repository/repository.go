// Package repository implements data persistence for secret management.
// Repositories support SQLite, PostgreSQL and MySQL and read the active transaction
// from the context so use cases control transaction boundaries.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/allisson/devinventory/internal/errors"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// likePattern builds a case-insensitive substring pattern in which the LIKE
// wildcards of the query are matched literally. Use with ESCAPE '\'.
func likePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(query)) + "%"
}

// isUniqueViolation reports whether err is a unique constraint violation on any
// supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

// wrapWriteError maps unique violations to ErrDuplicateName and everything else
// to a storage error.
func wrapWriteError(err error, message string) error {
	if isUniqueViolation(err) {
		return apperrors.Wrap(secretsDomain.ErrDuplicateName, message)
	}
	return apperrors.WrapStorage(err, message)
}

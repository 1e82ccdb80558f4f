// Package repository holds the SQL-backed stores for users and refresh
// tokens. The queries use only `?` placeholders and take every timestamp
// as a parameter, so the same statements run on MySQL and SQLite.
//
// Lookups that match no row return ErrNotFound rather than
// sql.ErrNoRows so that callers do not depend on database/sql.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists and ErrEmailExists are returned when an insert or
// update violates the corresponding unique index.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isDuplicateKey reports whether err is a unique constraint violation
// from either supported driver.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// Extended result codes disabled.
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

// duplicateUserError picks the sentinel for a duplicate key error on the
// users table. Both drivers name the offending index or column in the
// message ("uq_users_email" or "users.email").
func duplicateUserError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "uq_users_email") || strings.Contains(msg, "users.email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

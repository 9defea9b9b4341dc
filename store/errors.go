package store

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err represents a unique-constraint
// violation, across the sqlite and mysql drivers this store supports.
//
// The driver-specific error codes are checked first; a substring match on
// "UNIQUE constraint failed" is kept only as a fallback for the rare
// driver/wrapper combination that doesn't surface a typed error, per the
// portability note in the spec (detecting the constraint by code rather
// than by message is the supported path).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		const erDupEntry = 1062
		return mysqlErr.Number == erDupEntry
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "Duplicate entry")
}

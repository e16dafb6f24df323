package persistence

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Violation is the kind of constraint a storage error reports.
type Violation int

const (
	ViolationNone Violation = iota
	ViolationUnique
	ViolationForeignKey
	ViolationNotNull
)

func (v Violation) String() string {
	switch v {
	case ViolationUnique:
		return "unique"
	case ViolationForeignKey:
		return "foreign_key"
	case ViolationNotNull:
		return "not_null"
	default:
		return "none"
	}
}

// Classify inspects sqlite and postgres driver errors for constraint violations.
func Classify(err error) Violation {
	if err == nil {
		return ViolationNone
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ViolationUnique
		case sqlite3.ErrConstraintForeignKey:
			return ViolationForeignKey
		case sqlite3.ErrConstraintNotNull:
			return ViolationNotNull
		case sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT is enforced as a trigger
			if strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed") {
				return ViolationForeignKey
			}
		}
		return ViolationNone
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return ViolationUnique
		case "foreign_key_violation":
			return ViolationForeignKey
		case "not_null_violation":
			return ViolationNotNull
		}
	}

	return ViolationNone
}

// IsNoRows reports whether err is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

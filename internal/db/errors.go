package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories care about.
const (
	codeUndefinedTable    = "42P01"
	codeUndefinedColumn   = "42703"
	codeUndefinedFunction = "42883"
	codeInvalidSchemaName = "3F000"
	codeUniqueViolation   = "23505"
	codeForeignKey        = "23503"
)

// IsUndefinedObject reports whether err means the schema has not been provisioned
// (missing table, column, function or schema).
func IsUndefinedObject(err error) bool {
	switch pgCode(err) {
	case codeUndefinedTable, codeUndefinedColumn, codeUndefinedFunction, codeInvalidSchemaName:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKey
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

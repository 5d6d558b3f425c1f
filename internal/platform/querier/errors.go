package querier

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeInvalidTextRep      = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsForeignKeyViolation reports a reference to a row that does not exist.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsInvalidInput reports malformed literals such as a non-UUID id.
func IsInvalidInput(err error) bool {
	return pgCode(err) == codeInvalidTextRep
}

package sqlstore

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/warp/schooladmin/domain"
)

const pgUniqueViolation = "23505"

// translate maps driver and gorm errors onto the domain taxonomy. Anything
// unrecognised is returned wrapped with the entity name.
func translate(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity, id)
	}
	if field, ok := duplicateField(err); ok {
		return &domain.DuplicateError{Entity: entity, Field: field}
	}
	return errors.Wrap(err, strings.ToLower(entity))
}

// duplicateField reports whether err is a unique violation and, when the
// driver says which, the offending column.
func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgKeyColumn(pgErr.Detail), true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return sqliteColumn(liteErr.Error()), true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// pgKeyColumn extracts "code" from `Key (code)=(MATH101) already exists.`
func pgKeyColumn(detail string) string {
	start := strings.Index(detail, "(")
	end := strings.Index(detail, ")")
	if start < 0 || end <= start {
		return ""
	}
	return detail[start+1 : end]
}

// sqliteColumn extracts "code" from "UNIQUE constraint failed: subjects.code".
// Composite keys come back comma-separated and are returned as listed.
func sqliteColumn(msg string) string {
	_, cols, found := strings.Cut(msg, "failed: ")
	if !found {
		return ""
	}
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if _, col, ok := strings.Cut(p, "."); ok {
			p = col
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}

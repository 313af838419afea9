package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// UpsertSQL builds an INSERT ... ON CONFLICT ... DO UPDATE statement with
// one positional parameter per column, in column order. Conflict keys and
// any column named in noUpdate keep their stored value on conflict; every
// other column is overwritten from EXCLUDED. With nothing left to update the
// statement degrades to DO NOTHING.
//
// Identifiers are sanitized, so raw table and column names are safe to pass
// through.
func UpsertSQL(table string, columns, conflictKeys []string, noUpdate ...string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	skip := make(map[string]bool, len(conflictKeys)+len(noUpdate))
	for _, k := range conflictKeys {
		skip[k] = true
	}
	for _, k := range noUpdate {
		skip[k] = true
	}

	var setClauses []string
	for _, col := range columns {
		if skip[col] {
			continue
		}
		q := pgx.Identifier{col}.Sanitize()
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}

	action := "DO NOTHING"
	if len(setClauses) > 0 {
		action = "DO UPDATE SET " + strings.Join(setClauses, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		pgx.Identifier{table}.Sanitize(),
		quoteAndJoin(columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(conflictKeys),
		action,
	)
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

package repository

import "github.com/jackc/pgx/v5"

// Table and schema identifiers cannot be bound as query parameters, so the
// few places that interpolate them go through these helpers. Embedded quote
// characters are doubled, which neutralizes attempts to break out of the
// quoted identifier.

// QuoteIdent returns s as a safely quoted SQL identifier.
func QuoteIdent(s string) string {
	return pgx.Identifier{s}.Sanitize()
}

// QualifyTable returns `"schema"."table"` with both parts quoted.
func QualifyTable(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

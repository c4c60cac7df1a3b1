package store

import "database/sql"

// nullable converts an empty string to a SQL NULL parameter
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// fromNull converts a scanned NULL to an empty string
func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

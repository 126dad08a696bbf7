// Package dbproto builds the three SQL statements the registry issues
// against a Postgres-compatible jsonb column (lookup, single insert,
// batch insert) and validates the table/column identifiers interpolated
// into them at construction time.
//
// Identifier validation is grounded on original_source/src/db.rs's
// validate_sql_identifier: same character classes, same 63-character
// bound, same first-character rule, re-expressed as a single package-level
// regexp compiled once at package initialisation. Everything else (the
// canonical JSON payload, array parameters for the batch statement) is
// always a bound parameter, never interpolated, so the identifier check
// is the only SQL-injection surface this package has to close.
package dbproto

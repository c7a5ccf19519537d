// Package identity stores conduit users and the follow graph.
//
// Two engines implement Store: PostgresStore (pgx) and SQLiteStore (modernc).
// Writes that can hit a uniqueness constraint return the engine error as-is so
// the caller can run it through Constraints; missing rows are apperr.ErrNotFound.
package identity

// Package unify resolves standardized records onto aggregate sampling-event
// records and persists them in SQLite.
//
// Resolution and merging happen inside a single write transaction per record:
// an exact composite-key lookup, then a time-tolerance scan over same-day rows
// at the same location, then an insert. The unique composite-key index makes a
// lost race surface as a constraint conflict, which is retried as a merge into
// the winner's row.
package unify

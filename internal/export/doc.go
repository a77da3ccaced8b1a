// Package export encodes aggregate records for external consumption, either
// as full structured JSON or as a flattened one-row-per-aggregate CSV summary.
package export

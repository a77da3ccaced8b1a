// Package ingest tracks uploaded research-data files in a SQLite catalog.
//
// Each uploaded file gets a DataFile entry that moves through the pipeline
// lifecycle (pending, extracting, standardizing, unifying, completed or
// failed). Workers claim pending entries atomically so files are processed
// exactly once, and a failed file never blocks the rest of the queue.
package ingest

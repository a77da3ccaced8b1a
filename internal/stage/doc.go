// Package stage defines the contract between the workflow manager and the
// pipeline stages it drives.
package stage

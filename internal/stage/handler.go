package stage

import (
	"context"

	"aquanexa/internal/extract"
	"aquanexa/internal/ingest"
	"aquanexa/internal/standardize"
	"aquanexa/internal/unify"
)

// State carries intermediate artifacts between stages while one file moves
// through the pipeline. It never outlives the file's processing run.
type State struct {
	Payload *extract.Payload
	Result  *standardize.Result
	Stats   unify.MergeStats
}

// Handler describes the contract the workflow manager needs from each
// pipeline stage.
type Handler interface {
	// Name identifies the stage in logs and failure messages.
	Name() string
	// Status is the catalog status a file holds while this stage runs.
	Status() ingest.Status
	// Execute runs the stage, mutating the file's bookkeeping fields and the
	// shared state in place. A returned error fails the file, not the pipeline.
	Execute(ctx context.Context, file *ingest.DataFile, state *State) error
}

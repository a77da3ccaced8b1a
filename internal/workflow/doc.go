// Package workflow drives catalog entries through the extract, standardize,
// and unify stages with a small worker pool.
//
// Workers claim files by atomic status transition, so a file is processed by
// exactly one worker. A stage failure marks only that file failed; the pool
// keeps draining the rest of the queue.
package workflow

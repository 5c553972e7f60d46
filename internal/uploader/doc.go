// Package uploader drives bulk product publishing: a worker pool drains a
// FIFO queue of scanned items, runs each through the upload pipeline
// (rename, resize, media upload, product create, attach, metadata), and
// hands the outcome to a state synchronizer that makes it durable. A
// sequential mode runs the same pipeline inline when concurrency is
// disabled; both modes emit the same event stream.
package uploader

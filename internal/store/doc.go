// Package store persists upload state in SQLite. Two tables carry the two
// views of a run: product_records holds one row per item (the primary,
// per-item view) and batch_snapshots holds JSON blobs of whole scanned
// batches. The uploader writes item outcomes to product_records first and
// then patches every snapshot embedding the item so both views converge on
// the same terminal status.
//
// The schema is embedded and guarded by a schema_version table; when the
// schema changes, bump schemaVersion and delete the database file.
package store

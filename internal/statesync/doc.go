// Package statesync keeps the two persistence views of an upload run
// consistent: the per-item record in the primary store and the JSON batch
// snapshots that embed copies of the same items. The two are not
// transactionally linked, so the synchronizer writes the primary record
// first (with retries and read-after-write verification) and then patches
// each snapshot independently.
package statesync

// Package scan discovers product folders on disk and turns them into
// pending upload items backed by store records and a batch snapshot.
package scan

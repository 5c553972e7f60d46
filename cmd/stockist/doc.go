// Command stockist scans local product folders and publishes them to a
// remote catalog. Scan results and upload outcomes are tracked in a local
// SQLite database; see the scan, upload, status, records, and verify
// subcommands.
package main

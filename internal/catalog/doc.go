// Package catalog talks to the remote store's REST API. Product operations
// authenticate with the WooCommerce consumer key pair while media library
// operations use a WordPress application password. Transient failures are
// retried with exponential backoff; validation and credential failures are
// surfaced immediately.
package catalog

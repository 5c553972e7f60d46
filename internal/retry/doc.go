// Package retry provides the single backoff policy used for catalog calls
// and store writes. Callers choose an exponential or linear schedule and
// either drive the loop themselves via Delay or hand the whole loop to Do
// with a retryability predicate.
package retry

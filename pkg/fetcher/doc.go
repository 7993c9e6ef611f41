// Package fetcher materializes component sources as local git checkouts.
//
// Checkouts are cached per (component, revision): concurrent requests for
// the same pin share one clone via singleflight, and a pin fetched once is
// served from memory for the lifetime of the fetcher. Transient transport
// failures are retried with exponential backoff; authentication failures and
// unknown revisions are permanent and fail immediately.
package fetcher

// Package history resolves batches of candidate URLs against a browsing
// history index.
//
// A Resolver routes each batch either to per-URL resolution (cache, exact
// visit lookup, then text search with optional prefix inheritance) or, when
// the batch exceeds the configured limit, to sampled resolution over the most
// recent history entries. URLs without any match are absent from the result.
package history

// Package cache provides a TTL response cache for proxied GET requests.
//
// Entries are keyed by method plus normalized target URL and hold a full
// response snapshot (status, headers, body). Expired entries are treated
// as misses and evicted lazily on access; a background sweep reclaims the
// rest. When the entry limit is reached the least recently accessed entry
// is evicted.
package cache

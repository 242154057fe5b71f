// Package maintenance runs the periodic background sweeps: rate-limit
// garbage collection and persistence checkpoints, idle chat session
// eviction, and expired cache entry eviction.
package maintenance

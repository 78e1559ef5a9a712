package cache

import "context"

// Store is the key/value contract the paste engine caches through. It is
// an accelerator only: every implementation may drop entries at any time
// and callers treat a miss as a cold start, never as an error.
//
// Counters share the same keyspace; values are decimal strings so Get
// works uniformly for records and counts.
type Store interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Increment adds one to a numeric key, creating it at 1 when absent,
	// and reports whether the key existed beforehand.
	Increment(ctx context.Context, key string) (bool, error)
}

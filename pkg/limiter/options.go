package limiter

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Store. Invalid option values are reported by New,
// not at call time.
type Option func(*Store)

// WithShards sets the number of lock shards the store partitions keys
// across. Must be a power of two. The default of 32 is plenty for most
// workloads; raise it when profiling shows shard lock contention.
func WithShards(n int) Option {
	return func(s *Store) { s.shardCount = n }
}

// WithClock replaces the wall clock, primarily for deterministic tests.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithRecorder injects a custom metrics backend.
func WithRecorder(r MetricsRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithLogger attaches a zerolog logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithIdleTTL enables eviction of buckets untouched for d. It must be at
// least one period: a bucket idle that long has fully replenished, so its
// removal is indistinguishable from keeping it (the next check sees a full
// bucket either way). Without this option buckets live for the lifetime of
// the store.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Store) { s.idleTTL = d }
}

// WithSweepInterval sets how often the background sweep runs when
// WithIdleTTL is enabled (default 1 minute).
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepInterval = d }
}

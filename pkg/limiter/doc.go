// Package limiter provides in-process, per-key rate limiting based on the
// Token Bucket algorithm.
//
// The primary entry point is the Store:
//
//	store, err := limiter.New(limiter.PerSecond(5))
//	...
//	if store.Check(key) {
//		// proceed
//	}
//
// Check returns a plain boolean; Allow returns a Decision that additionally
// carries how many whole tokens remain and timing hints for callers that
// want to set rate-limit headers (for example, Retry-After).
//
// # Overview
//
// This package implements a Token Bucket:
//
//   - Each key has a "bucket" holding tokens.
//   - The bucket refills over time up to a maximum capacity.
//   - Each check consumes 1 token when available.
//
// Unlike fixed-window counters, token buckets naturally support bursts while
// still enforcing a long-term average rate.
//
// # Core Types
//
// Rate defines the policy: Capacity tokens replenish fully over Period.
// The constructors PerSecond, PerMinute, PerHour and PerDay cover the common
// granularities; any positive (Capacity, Period) pair works.
//
// The key is a string identifying "who" is being limited (for example, a
// client IP, a user id, or a route). Key extraction is the caller's concern;
// the store only requires that the same logical identity always produces the
// same key. Each distinct key owns an independent bucket, created on first
// use with a full token balance so a new key may burst up to Capacity
// immediately.
//
// A Store enforces exactly one Rate, fixed when it is constructed. Two
// routes with different limits get two independent stores; their key spaces
// never interact. Changing a limit means constructing a new store.
//
// # Concurrency
//
// Store is safe for concurrent use by multiple goroutines. Keys are
// partitioned across independently locked shards by hash, so contention on
// one hot key does not delay checks for keys on other shards. For a single
// key, create-if-absent and refill-then-debit run in one critical section:
// under N concurrent checks the number of allowed calls is exactly the
// number of tokens the bucket could release, never more and never fewer.
//
// Allow and Check perform no I/O, never block beyond the shard mutex, and
// complete in bounded time, so they take no context.Context.
//
// # Clock Handling
//
// Refill is computed from elapsed wall-clock time since the bucket was last
// observed. A clock reading that goes backwards is clamped to zero elapsed
// time, so clock skew can never mint tokens. Tests can inject a fake Clock
// via WithClock to drive refill deterministically.
//
// # Error Policy
//
// Configuration problems (non-positive capacity or period, bad shard count,
// an idle TTL shorter than the period) are reported by New and never
// surface mid-traffic. "Denied" is a normal outcome, not an error: Allow
// and Check have no error return.
//
// # Memory and Eviction
//
// By default buckets are never evicted, so long-lived processes limiting
// high-cardinality keys (per-IP, for example) grow without bound. Enable
// WithIdleTTL to have a background sweep remove buckets untouched for the
// TTL. The TTL must be at least one Period: a bucket idle that long has
// fully replenished, so evicting it does not change observable behavior:
// the key's next check sees a full bucket either way. Call Close to stop
// the sweep when discarding the store.
//
// # Metrics
//
// The store reports each check and each sweep through a MetricsRecorder
// (default: no-op). NewPrometheusRecorder adapts the recorder interface to
// prometheus/client_golang collectors:
//
//	rec := limiter.NewPrometheusRecorder(prometheus.DefaultRegisterer)
//	store, _ := limiter.New(limiter.PerMinute(100), limiter.WithRecorder(rec))
//
// # Configuration
//
// Store is configured using the Functional Options pattern:
//
//	store, _ := limiter.New(limiter.PerSecond(10),
//		limiter.WithShards(64),
//		limiter.WithIdleTTL(10*time.Minute),
//		limiter.WithRecorder(myMetrics),
//	)
//
// Supported options:
//
//   - WithShards(int): lock shard count, a power of two (default 32).
//   - WithClock(Clock): time source override, for deterministic tests.
//   - WithRecorder(MetricsRecorder): injects a custom metrics backend.
//   - WithLogger(zerolog.Logger): structured logging (default: discard).
//   - WithIdleTTL(time.Duration): enables idle-bucket eviction.
//   - WithSweepInterval(time.Duration): eviction sweep cadence (default 1m).
//
// # Scope
//
// State is local to the process. This package does not coordinate limits
// across replicas and does not persist buckets across restarts; a fresh
// process starts every key with a full bucket.
package limiter

package limiter

import (
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

const (
	defaultShardCount    = 32
	defaultSweepInterval = time.Minute
)

// shard guards one partition of the key space. Holding one shard's lock
// never delays checks against keys hashed to other shards.
type shard struct {
	mu      sync.Mutex
	buckets map[string]bucket
}

// Store is a concurrent per-key token-bucket rate limiter.
//
// Every key owns an independent bucket created lazily on first use with a
// full token balance, so a new key may burst up to the rate's capacity
// immediately. Buckets are partitioned across lock shards by key hash;
// create-if-absent and refill-then-debit happen inside a single critical
// section per key, so concurrent first-touch callers join the same bucket
// and a token is never granted twice.
//
// A Store enforces exactly one Rate, fixed at construction. To change
// limits, build a new Store. Allow and Check never block on I/O and never
// return errors.
type Store struct {
	rate     Rate
	shards   []*shard
	mask     uint64
	clock    Clock
	recorder MetricsRecorder
	log      zerolog.Logger

	shardCount    int
	idleTTL       time.Duration
	sweepInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a Store for the given rate. It fails fast on a
// non-positive capacity or period and on invalid option values; a Store
// that constructs successfully never surfaces an error mid-traffic.
func New(rate Rate, opts ...Option) (*Store, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		rate:          rate,
		clock:         systemClock{},
		recorder:      &NoOpMetricsRecorder{},
		log:           zerolog.Nop(),
		shardCount:    defaultShardCount,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.shardCount <= 0 || s.shardCount&(s.shardCount-1) != 0 {
		return nil, ErrInvalidShards
	}
	if s.idleTTL != 0 && s.idleTTL < rate.Period {
		return nil, ErrInvalidIdleTTL
	}
	if s.sweepInterval <= 0 {
		return nil, ErrInvalidIdleTTL
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{buckets: make(map[string]bucket)}
	}
	s.mask = uint64(s.shardCount - 1)

	if s.idleTTL > 0 {
		s.stop = make(chan struct{})
		go s.sweepLoop()
	}
	return s, nil
}

// Allow decides whether a request for key may proceed and, if so, debits
// one token. The first call for an unseen key creates its bucket with a
// full balance and consumes the first token in the same step.
func (s *Store) Allow(key string) Decision {
	start := time.Now()
	sh := s.shards[xxhash.Sum64String(key)&s.mask]
	now := s.clock.Now()

	sh.mu.Lock()
	b, exists := sh.buckets[key]
	var allowed bool
	if !exists {
		b = bucket{tokens: float64(s.rate.Capacity) - 1, lastRefill: now}
		allowed = true
	} else {
		allowed, b = consume(b, now, s.rate)
	}
	sh.buckets[key] = b
	sh.mu.Unlock()

	dec := Decision{
		Allow:     allowed,
		Remaining: int64(b.tokens),
		ResetTime: now,
	}
	if !allowed {
		dec.RetryAfter = retryAfter(b, s.rate)
		dec.ResetTime = now.Add(dec.RetryAfter)
	}

	s.recorder.Add(metricCall, 1, map[string]string{"allowed": strconv.FormatBool(allowed)})
	s.recorder.Observe(metricLatency, time.Since(start).Seconds(), nil)
	return dec
}

// Check is the boolean form of Allow: true means the caller may proceed.
func (s *Store) Check(key string) bool {
	return s.Allow(key).Allow
}

// Rate returns the store's limit specification.
func (s *Store) Rate() Rate {
	return s.rate
}

// Len reports the number of tracked buckets across all shards.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.buckets)
		sh.mu.Unlock()
	}
	return n
}

// Close stops the background sweep, if any. It is safe to call more than
// once and safe to keep using the store afterwards; only eviction stops.
func (s *Store) Close() {
	if s.stop == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes buckets idle for at least idleTTL. It locks one shard at a
// time so a sweep never stalls the whole key space.
func (s *Store) sweep() {
	now := s.clock.Now()
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, b := range sh.buckets {
			if now.Sub(b.lastRefill) >= s.idleTTL {
				delete(sh.buckets, key)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	if evicted > 0 {
		s.recorder.Add(metricEvictions, float64(evicted), nil)
		s.log.Debug().Int("evicted", evicted).Msg("removed idle buckets")
	}
}

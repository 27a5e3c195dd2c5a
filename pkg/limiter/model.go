package limiter

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors returned by New. They are programmer/config errors:
// once a Store is constructed, Allow and Check never fail.
var (
	ErrInvalidRate    = errors.New("limiter: rate capacity and period must be positive")
	ErrInvalidShards  = errors.New("limiter: shard count must be a positive power of two")
	ErrInvalidIdleTTL = errors.New("limiter: idle TTL must be at least one period")
)

// Rate is an immutable limit specification: Capacity tokens replenish fully
// over Period. The derived refill rate is Capacity/Period tokens per unit
// time and need not be a whole number per tick.
type Rate struct {
	Capacity int64
	Period   time.Duration
}

// PerSecond allows n requests per second.
func PerSecond(n int64) Rate { return Rate{Capacity: n, Period: time.Second} }

// PerMinute allows n requests per minute.
func PerMinute(n int64) Rate { return Rate{Capacity: n, Period: time.Minute} }

// PerHour allows n requests per hour.
func PerHour(n int64) Rate { return Rate{Capacity: n, Period: time.Hour} }

// PerDay allows n requests per day.
func PerDay(n int64) Rate { return Rate{Capacity: n, Period: 24 * time.Hour} }

// Validate reports whether the rate is usable. A zero or negative capacity
// or period is rejected here, at setup time, never mid-traffic.
func (r Rate) Validate() error {
	if r.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidRate, r.Capacity)
	}
	if r.Period <= 0 {
		return fmt.Errorf("%w: period %s", ErrInvalidRate, r.Period)
	}
	return nil
}

// tokensPerSecond is the refill rate.
func (r Rate) tokensPerSecond() float64 {
	return float64(r.Capacity) / r.Period.Seconds()
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	// Allow reports whether the request may proceed.
	Allow bool
	// Remaining is the number of whole tokens left after this decision.
	Remaining int64
	// RetryAfter is 0 when allowed; when denied it is the approximate
	// duration until one token is expected to be available.
	RetryAfter time.Duration
	// ResetTime is the absolute timestamp corresponding to now+RetryAfter.
	ResetTime time.Time
}

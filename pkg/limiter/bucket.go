package limiter

import "time"

// bucket is the token-bucket state for a single key. Tokens are kept as a
// float so fractional accrual between checks is neither lost nor
// double-counted.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// consume applies refill-then-debit to a bucket and reports whether one
// token was taken. It is a pure computation over its inputs, which lets
// tests drive it with synthetic timestamps.
//
// A now earlier than lastRefill is treated as zero elapsed time, so a
// non-monotonic clock reading can never mint tokens and never rewinds
// lastRefill. Otherwise lastRefill advances to now whether or not the
// request was allowed, so partial accrual is neither lost nor
// double-counted on the next call.
func consume(b bucket, now time.Time, rate Rate) (bool, bucket) {
	last := now
	elapsed := now.Sub(b.lastRefill)
	if elapsed < 0 {
		elapsed = 0
		last = b.lastRefill
	}

	refilled := b.tokens + elapsed.Seconds()*rate.tokensPerSecond()
	if refilled > float64(rate.Capacity) {
		refilled = float64(rate.Capacity)
	}

	allowed := refilled >= 1
	if allowed {
		refilled -= 1
	}
	return allowed, bucket{tokens: refilled, lastRefill: last}
}

// retryAfter is the approximate time until one whole token is available.
func retryAfter(b bucket, rate Rate) time.Duration {
	if b.tokens >= 1 {
		return 0
	}
	costPerToken := float64(rate.Period) / float64(rate.Capacity)
	missing := 1.0 - b.tokens
	return time.Duration(missing * costPerToken)
}

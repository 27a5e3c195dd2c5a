package limiter

import (
	"testing"
	"time"
)

func TestConsume_RefillThenDebit(t *testing.T) {
	rate := PerSecond(10)
	start := time.Unix(1000, 0)

	b := bucket{tokens: 0, lastRefill: start}

	// 500ms at 10 tokens/sec accrues 5 tokens; one is debited.
	allowed, b := consume(b, start.Add(500*time.Millisecond), rate)
	if !allowed {
		t.Fatal("expected refilled bucket to allow")
	}
	if b.tokens < 3.99 || b.tokens > 4.01 {
		t.Errorf("expected ~4 tokens after refill and debit, got %f", b.tokens)
	}
}

func TestConsume_ClampsToCapacity(t *testing.T) {
	rate := PerSecond(5)
	start := time.Unix(1000, 0)

	// A week of idle time must clamp at capacity, never beyond.
	b := bucket{tokens: 0, lastRefill: start}
	allowed, b := consume(b, start.Add(7*24*time.Hour), rate)
	if !allowed {
		t.Fatal("expected long-idle bucket to allow")
	}
	if b.tokens != 4 {
		t.Errorf("expected capacity-1 tokens after clamp and debit, got %f", b.tokens)
	}
}

func TestConsume_NegativeElapsed(t *testing.T) {
	rate := PerSecond(5)
	start := time.Unix(1000, 0)

	// now before lastRefill: zero elapsed, no free tokens.
	b := bucket{tokens: 0.5, lastRefill: start}
	allowed, b := consume(b, start.Add(-time.Hour), rate)
	if allowed {
		t.Error("expected denial when clock runs backwards on an empty bucket")
	}
	if b.tokens != 0.5 {
		t.Errorf("expected tokens unchanged on backwards clock, got %f", b.tokens)
	}
	// lastRefill never moves backwards.
	if !b.lastRefill.Equal(start) {
		t.Errorf("expected lastRefill to stay at %v, got %v", start, b.lastRefill)
	}
}

func TestConsume_PartialAccrualPreserved(t *testing.T) {
	// 1 token per minute. A denied check halfway through the period must
	// not lose the half token accrued so far.
	rate := PerMinute(1)
	start := time.Unix(1000, 0)

	b := bucket{tokens: 0, lastRefill: start}

	allowed, b := consume(b, start.Add(30*time.Second), rate)
	if allowed {
		t.Fatal("expected denial at 30s with 1-per-minute rate")
	}
	if b.tokens < 0.49 || b.tokens > 0.51 {
		t.Errorf("expected ~0.5 tokens accrued, got %f", b.tokens)
	}

	allowed, _ = consume(b, start.Add(60*time.Second), rate)
	if !allowed {
		t.Error("expected the second half of the period to complete the token")
	}
}

func TestRetryAfter(t *testing.T) {
	rate := PerSecond(10) // one token every 100ms

	d := retryAfter(bucket{tokens: 0}, rate)
	if d != 100*time.Millisecond {
		t.Errorf("expected 100ms for an empty bucket, got %v", d)
	}

	d = retryAfter(bucket{tokens: 0.5}, rate)
	if d != 50*time.Millisecond {
		t.Errorf("expected 50ms for a half token, got %v", d)
	}

	if d := retryAfter(bucket{tokens: 3}, rate); d != 0 {
		t.Errorf("expected 0 when tokens are available, got %v", d)
	}
}

func TestRateValidate(t *testing.T) {
	cases := []struct {
		name string
		rate Rate
		ok   bool
	}{
		{"valid", PerSecond(5), true},
		{"zero capacity", Rate{Capacity: 0, Period: time.Second}, false},
		{"negative capacity", Rate{Capacity: -1, Period: time.Second}, false},
		{"zero period", Rate{Capacity: 5, Period: 0}, false},
		{"negative period", Rate{Capacity: 5, Period: -time.Second}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rate.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

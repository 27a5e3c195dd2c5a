package limiter

import "time"

// Clock supplies the current time to the store. Inject a fake via
// WithClock to make refill behavior deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

package resilience

import "time"

// Config tunes retries and the circuit breaker guarding one dependency.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Jitter is the fraction of each backoff that is randomized, 0..1.
	Jitter float64

	Breaker             bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
		Jitter:         0.2,

		Breaker:             true,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  30 * time.Second,
	}
}

// maxAttemptsCeiling bounds retries regardless of configuration.
const maxAttemptsCeiling = 5

func (c Config) normalize() Config {
	def := DefaultConfig()

	c.MaxAttempts = min(c.MaxAttempts, maxAttemptsCeiling)
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	c.MaxBackoff = max(c.MaxBackoff, c.InitialBackoff)
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = def.Jitter
	}

	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = def.BreakerMinRequests
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	return c
}

// backoff returns the wait before the retry that follows attempt, doubling
// from InitialBackoff up to MaxBackoff.
func (c Config) backoff(attempt int) time.Duration {
	wait := c.InitialBackoff
	for i := 1; i < attempt && wait < c.MaxBackoff; i++ {
		wait *= 2
	}
	return min(wait, c.MaxBackoff)
}

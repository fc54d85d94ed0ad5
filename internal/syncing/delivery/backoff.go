package delivery

import (
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy computes the wait between delivery attempts:
// Base * 2^attempt, with the exponent capped so the schedule flattens at
// the attempt-5 value (2s, 4s, 8s, 16s, 32s for Base=1s), then clamped to
// Cap. JitterFraction adds up to that fraction of random variance on top
// to avoid synchronized retry storms across consumer instances.
type BackoffPolicy struct {
	Base           time.Duration
	Cap            time.Duration
	JitterFraction float64
	Rand           *rand.Rand // nil means no jitter source; jitter is skipped
}

// DefaultBackoff returns the schedule used for provider deliveries.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base: 1 * time.Second,
		Cap:  32 * time.Second,
	}
}

const maxExponent = 5

// Delay returns the wait duration before retrying after the given
// attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exponent := attempt
	if exponent > maxExponent {
		exponent = maxExponent
	}

	delay := float64(p.Base) * math.Pow(2, float64(exponent))
	if p.Cap > 0 && delay > float64(p.Cap) {
		delay = float64(p.Cap)
	}

	if p.JitterFraction > 0 && p.Rand != nil {
		delay += delay * p.JitterFraction * p.Rand.Float64()
	}

	return time.Duration(delay)
}

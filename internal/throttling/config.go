package throttling

import (
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Config is the throttling configuration surface.
type Config struct {
	// Limit is the number of waiting records that triggers throttling.
	// Zero disables throttling.
	Limit int

	// Strategy is the throttling behavior once Limit is reached.
	Strategy Strategy

	// Delay is the millisecond (fixed strategies) or percentage (percentage
	// strategies) delay. It is an exact decimal so that truncation of
	// waiting*Delay/100 never depends on binary floating point error.
	Delay apd.Decimal
}

// DefaultConfig returns a disabled throttling configuration.
func DefaultConfig() Config {
	return Config{Strategy: None}
}

// EnsureAllowedValues clamps the configuration to valid values: a Limit
// below 1 becomes 0, a negative Delay becomes 0, and a zero Limit forces
// Strategy None. It is idempotent and never fails.
func (c *Config) EnsureAllowedValues() {
	if c.Limit < 1 {
		c.Limit = 0
	}
	if c.Delay.Sign() < 0 {
		c.Delay = apd.Decimal{}
	}
	if c.Limit == 0 {
		c.Strategy = None
	}
}

// ParseDelay parses a decimal delay such as "500" or "12.5".
func ParseDelay(s string) (apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return apd.Decimal{}, fmt.Errorf("parse throttling delay %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return apd.Decimal{}, fmt.Errorf("parse throttling delay %q: not a finite number", s)
	}
	return *d, nil
}

// MustParseDelay is like ParseDelay but panics on error.
func MustParseDelay(s string) apd.Decimal {
	d, err := ParseDelay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Infinite is passed to proceed when the send must not be bounded by a timeout.
const Infinite time.Duration = -1

// decimalCtx truncates on every operation; delays are whole milliseconds.
var decimalCtx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundDown
	return c
}()

const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// fixedTime returns the delay or timeout in whole milliseconds: Delay for
// fixed strategies, waiting*Delay/100 for percentage strategies, truncated
// toward zero.
func (c Config) fixedTime(waiting int) int64 {
	d := new(apd.Decimal)
	if c.Strategy.percentage() {
		if _, err := decimalCtx.Mul(d, apd.New(int64(waiting), 0), &c.Delay); err != nil {
			return 0
		}
		if _, err := decimalCtx.Quo(d, d, apd.New(100, 0)); err != nil {
			return 0
		}
	} else {
		d.Set(&c.Delay)
	}

	if _, err := decimalCtx.RoundToIntegralValue(d, d); err != nil {
		return 0
	}
	ms, err := d.Int64()
	if err != nil || ms > maxMillis {
		return maxMillis
	}
	if ms < 0 {
		return 0
	}
	return ms
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

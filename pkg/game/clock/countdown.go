package clock

import "time"

// Countdown is a tick-driven timer. It only advances when Update is called
// by the simulation loop, so it never fires on its own goroutine.
type Countdown struct {
	period  time.Duration
	current time.Duration
}

func NewCountdown(period time.Duration) Countdown {
	return Countdown{
		period:  period,
		current: period,
	}
}

// Update advances the countdown by delta and reports whether it reached zero
// during this call. A countdown sitting at zero never reports expiry again
// until it is reset.
func (c *Countdown) Update(delta time.Duration) bool {
	if c.current == 0 {
		return false
	}

	if delta >= c.current {
		c.current = 0
		return true
	}

	c.current -= delta
	return false
}

// Reset rearms the countdown with its existing period.
func (c *Countdown) Reset() {
	c.current = c.period
}

// ResetTo rearms the countdown with a new period.
func (c *Countdown) ResetTo(period time.Duration) {
	c.period = period
	c.current = period
}

func (c *Countdown) Clear() {
	c.current = 0
}

func (c *Countdown) Extend(delta time.Duration) {
	c.current += delta
	if c.current < 0 {
		c.current = 0
	}

	c.period += delta
	if c.period < 0 {
		c.period = 0
	}
}

func (c *Countdown) Current() time.Duration {
	return c.current
}

func (c *Countdown) Period() time.Duration {
	return c.period
}

func (c *Countdown) Running() bool {
	return c.current > 0
}

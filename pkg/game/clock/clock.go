package clock

import (
	"strconv"
	"time"
)

const (
	DefaultMaxGameTime = 999 * time.Minute
	DefaultGameTime    = 10 * time.Minute
)

// GameClock is the authoritative match timer. An unlimited clock still counts
// down from the maximum game time but never reports expiry.
type GameClock struct {
	timer           Countdown
	max             time.Duration
	unlimited       bool
	renderingOffset time.Duration
	over            bool
}

func New(max time.Duration) *GameClock {
	if max <= 0 {
		max = DefaultMaxGameTime
	}

	c := &GameClock{max: max}
	c.Reset(DefaultGameTime)
	return c
}

// Reset restarts the clock with the given duration. Zero means unlimited.
func (c *GameClock) Reset(duration time.Duration) {
	if duration <= 0 {
		c.timer.ResetTo(c.max)
		c.unlimited = true
	} else {
		c.timer.ResetTo(duration)
		c.unlimited = false
	}

	c.renderingOffset = 0
	c.over = false
}

// Update advances the clock and reports whether the match time ran out on
// this tick. After MarkOver the rendering offset keeps decaying.
func (c *GameClock) Update(delta time.Duration) bool {
	expired := c.timer.Update(delta)

	if c.over {
		c.renderingOffset -= delta
	}

	if c.unlimited {
		return false
	}

	return expired
}

func (c *GameClock) Current() time.Duration {
	return c.timer.Current()
}

// Extend adds time to the match, clamped so the total never exceeds the
// maximum game time.
func (c *GameClock) Extend(delta time.Duration) {
	if c.timer.Period()+delta > c.max {
		delta = c.max - c.timer.Period()
	}
	c.timer.Extend(delta)
}

// Sync forces the countdown to the given remaining time without touching the
// rendering offset.
func (c *GameClock) Sync(remaining time.Duration) {
	c.timer.ResetTo(remaining)
}

// SetTimeRemaining applies an authoritative change and stores a rendering
// offset so clients can ease into the new value instead of jumping.
func (c *GameClock) SetTimeRemaining(remaining time.Duration, unlimited bool) {
	offset := c.Current() + c.renderingOffset - remaining

	c.Reset(remaining)
	c.unlimited = unlimited
	c.renderingOffset = offset
}

func (c *GameClock) IsUnlimited() bool {
	return c.unlimited
}

func (c *GameClock) Total() time.Duration {
	return c.timer.Period()
}

func (c *GameClock) Max() time.Duration {
	return c.max
}

func (c *GameClock) RenderingOffset() time.Duration {
	return c.renderingOffset
}

func (c *GameClock) SetRenderingOffset(offset time.Duration) {
	c.renderingOffset = offset
}

func (c *GameClock) MarkOver() {
	c.over = true
}

func (c *GameClock) IsOver() bool {
	return c.over
}

// Minutes formats the total game time as used in level code, "0" for
// unlimited games.
func (c *GameClock) Minutes() string {
	if c.unlimited {
		return "0"
	}
	return strconv.FormatFloat(c.timer.Period().Minutes(), 'f', -1, 64)
}

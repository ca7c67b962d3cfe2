package chanlock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

// Chanlock reports when an event loop stops draining its health channel.
// The loop calls Mark before each unit of work so a stall can be traced
// back to the last thing it was doing.
type Chanlock struct {
	log      zerolog.Logger
	lastMark string
	interval time.Duration
	timeout  time.Duration
	stalls   atomic.Int64
	mutex    deadlock.RWMutex
}

const (
	TIMEOUT_DURATION      = 15 * time.Second
	HEALTH_CHECK_DURATION = 1 * time.Second
)

func New(logger zerolog.Logger) *Chanlock {
	return NewWithTimings(logger, HEALTH_CHECK_DURATION, TIMEOUT_DURATION)
}

func NewWithTimings(logger zerolog.Logger, interval, timeout time.Duration) *Chanlock {
	return &Chanlock{
		log:      logger,
		interval: interval,
		timeout:  timeout,
	}
}

func (c *Chanlock) Mark(name string) {
	c.mutex.Lock()
	c.lastMark = name
	c.mutex.Unlock()
}

func (c *Chanlock) LastMark() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastMark
}

// Stalls is the number of health checks that went unanswered for longer
// than the timeout.
func (c *Chanlock) Stalls() int64 {
	return c.stalls.Load()
}

// Poll returns the channel the event loop must receive from. Each tick that
// is not received within the timeout is logged along with the last mark.
func (c *Chanlock) Poll(ctx context.Context) <-chan time.Time {
	out := make(chan time.Time)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case t := <-ticker.C:
				timeout := time.NewTimer(c.timeout)
				select {
				case out <- t:
					timeout.Stop()
					c.Mark("")
					continue
				case <-ctx.Done():
					timeout.Stop()
					return
				case <-timeout.C:
				}

				c.stalls.Add(1)
				mark := c.LastMark()
				c.log.Error().Msgf("event loop no longer healthy")
				if mark != "" {
					c.log.Error().Msgf("last mark: %s", mark)
				}

				select {
				case out <- t:
					c.Mark("")
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

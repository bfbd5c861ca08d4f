package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown ticks once per second toward zero. It is the only autonomous
// activity in the core; everything else reacts to inbound events. At most
// one countdown runs per session, tied to the currently open question.
type Countdown struct {
	clock    clockwork.Clock
	seconds  int
	stopCh   chan struct{}
	stopOnce sync.Once

	onTick   func(c *Countdown, remaining int)
	onExpire func(c *Countdown)
}

// startCountdown begins ticking immediately. Callbacks receive the countdown
// itself so the session can discard ticks from a superseded countdown.
func startCountdown(clock clockwork.Clock, seconds int, onTick func(*Countdown, int), onExpire func(*Countdown)) *Countdown {
	c := &Countdown{
		clock:    clock,
		seconds:  seconds,
		stopCh:   make(chan struct{}),
		onTick:   onTick,
		onExpire: onExpire,
	}
	go c.run()
	return c
}

func (c *Countdown) run() {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := c.seconds
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.Chan():
			// A stop that raced the tick wins; no callbacks after Stop.
			select {
			case <-c.stopCh:
				return
			default:
			}
			remaining--
			c.onTick(c, remaining)
			if remaining <= 0 {
				c.onExpire(c)
				return
			}
		}
	}
}

// Stop halts the countdown without further callbacks. Idempotent. A tick
// already past the select is disarmed by the session's identity check.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

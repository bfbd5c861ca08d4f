package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type countdownRecorder struct {
	ticks   chan int
	expired chan struct{}
}

func newCountdownRecorder() *countdownRecorder {
	return &countdownRecorder{
		ticks:   make(chan int, 16),
		expired: make(chan struct{}, 16),
	}
}

func (r *countdownRecorder) onTick(_ *Countdown, remaining int) { r.ticks <- remaining }
func (r *countdownRecorder) onExpire(_ *Countdown)              { r.expired <- struct{}{} }

func (r *countdownRecorder) waitTick(t *testing.T) int {
	t.Helper()
	select {
	case v := <-r.ticks:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

func TestCountdownTicksDownAndExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCountdownRecorder()

	startCountdown(clock, 3, rec.onTick, rec.onExpire)

	for want := 2; want >= 0; want-- {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
		if got := rec.waitTick(t); got != want {
			t.Fatalf("tick = %d, want %d", got, want)
		}
	}

	select {
	case <-rec.expired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for expiry")
	}

	// The countdown stops after expiry; no further ticks may arrive.
	select {
	case v := <-rec.ticks:
		t.Fatalf("unexpected tick %d after expiry", v)
	case <-rec.expired:
		t.Fatal("expiry fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCountdownStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newCountdownRecorder()

	c := startCountdown(clock, 5, rec.onTick, rec.onExpire)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	if got := rec.waitTick(t); got != 4 {
		t.Fatalf("tick = %d, want 4", got)
	}

	c.Stop()
	c.Stop() // idempotent

	clock.Advance(5 * time.Second)
	select {
	case v := <-rec.ticks:
		t.Fatalf("unexpected tick %d after Stop", v)
	case <-rec.expired:
		t.Fatal("expiry fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

package core

import (
	"context"
	"time"
)

// countdown feeds tick requests into the engine queue. It never touches
// the auction state itself.
type countdown struct {
	stop chan struct{}
	done chan struct{}
}

func (c *countdown) run(interval time.Duration, send func() bool) {
	defer close(c.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			if !send() {
				return
			}
		}
	}
}

// startCountdown replaces the running countdown, if any, with a fresh one.
// Must be called on the engine goroutine.
func (e *Engine) startCountdown() {
	e.stopCountdown()
	gen := e.gen
	c := &countdown{stop: make(chan struct{}), done: make(chan struct{})}
	e.countdown = c
	go c.run(e.cfg.TickInterval, func() bool {
		tick := request{
			ctx: context.Background(),
			fn:  func(ctx context.Context) error { return e.tick(ctx, gen) },
		}
		select {
		case e.reqs <- tick:
			return true
		case <-c.stop:
			return false
		}
	})
}

// stopCountdown returns once the countdown goroutine has exited. Ticks it
// already queued carry an outdated generation and are dropped.
func (e *Engine) stopCountdown() {
	e.gen++
	if e.countdown == nil {
		return
	}
	close(e.countdown.stop)
	<-e.countdown.done
	e.countdown = nil
}

func (e *Engine) tick(ctx context.Context, gen uint64) error {
	if gen != e.gen || !e.state.IsRunning || e.state.CurrentItemID == nil {
		return nil
	}
	e.state.Timer--
	if e.state.Timer > 0 {
		e.publishTimer()
		return nil
	}

	e.state.Timer = 0
	e.stopCountdown()
	itemID := *e.state.CurrentItemID
	if _, err := e.resolve(ctx, itemID); err != nil {
		e.logger.Error("countdown resolve failed, lot stalled until resolved manually",
			"item_id", itemID,
			"error", err,
		)
		e.publish(domainTimerError(err))
		e.publishTimer()
	}
	return nil
}

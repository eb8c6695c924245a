package main

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// pacer decides how long the relay sleeps between drains.
// Failures double the delay up to maxBackoff and a successful drain resets it.
type pacer struct {
	base    time.Duration
	current time.Duration
}

func newPacer(base time.Duration) *pacer {
	return &pacer{base: base, current: base}
}

func (p *pacer) idle() time.Duration { return jittered(p.base) }

func (p *pacer) failed() time.Duration {
	p.current = min(p.current*2, maxBackoff)
	return jittered(p.current)
}

func (p *pacer) reset() { p.current = p.base }

func (p *pacer) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func jittered(d time.Duration) time.Duration {
	return d + rand.N(jitterWindow)
}

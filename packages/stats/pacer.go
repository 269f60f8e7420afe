package stats

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces runs at least interval apart. The first Wait returns
// immediately.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer. A non-positive interval does not pace at all.
func NewPacer(interval time.Duration) *Pacer {
	p := &Pacer{}
	if interval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return p
}

// Wait blocks until the next run may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter != nil {
		return p.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// Repeat calls fn count times, paced by interval. A count of zero repeats
// until ctx is cancelled, which is then not reported as an error. An error
// from fn stops the loop and is returned.
func Repeat(ctx context.Context, count int, interval time.Duration, fn func(ctx context.Context, i int) error) error {
	pacer := NewPacer(interval)
	for i := 0; count <= 0 || i < count; i++ {
		if err := pacer.Wait(ctx); err != nil {
			if count <= 0 && ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

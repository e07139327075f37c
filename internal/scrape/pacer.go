package scrape

import (
	"context"
	"time"
)

// pacer abstracts the politeness delay applied between completed fetches.
type pacer interface {
	Pause(ctx context.Context, delay time.Duration)
}

// timerPacer blocks for the delay or until the context finishes.
type timerPacer struct{}

func (timerPacer) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

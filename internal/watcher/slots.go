package watcher

import (
	"context"
	"time"
)

// runSlots bounds how many recordings are processed at once. A slot is only
// handed out after the settle delay, so the recorder has finished writing.
type runSlots struct {
	ch     chan struct{}
	settle time.Duration
}

func newRunSlots(capacity int, settle time.Duration) *runSlots {
	return &runSlots{
		ch:     make(chan struct{}, capacity),
		settle: settle,
	}
}

// acquire waits out the settle delay, then blocks until a slot is free
func (s *runSlots) acquire(ctx context.Context) error {
	if s.settle > 0 {
		timer := time.NewTimer(s.settle)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *runSlots) release() {
	<-s.ch
}

// inUse reports how many runs currently hold a slot
func (s *runSlots) inUse() int {
	return len(s.ch)
}

package audit

import (
	"context"
	"time"
)

// Throttle pauses the audit between consecutive accounts.
type Throttle interface {
	Wait(ctx context.Context) error
}

// Delay is a fixed pause, regardless of how long the preceding API call took.
type Delay time.Duration

func NewDelay(d time.Duration) Delay {
	return Delay(d)
}

func (d Delay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		return nil
	}
}

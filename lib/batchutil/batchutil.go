// Package batchutil holds the small helpers shared by the batch services.
package batchutil

import (
	"context"
	"time"
)

// Fatal marks a per-item failure that must abort the whole batch instead
// of being skipped, like a broken output directory.
type Fatal struct {
	Err error
}

func (e *Fatal) Error() string {
	return e.Err.Error()
}

func (e *Fatal) Unwrap() error {
	return e.Err
}

// Sleep waits out the inter-item delay, returning early when the batch
// context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

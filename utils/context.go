package utils

import (
	"context"
	"time"
)

func ContextSleep(ctx context.Context, d time.Duration) *time.Time {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil
	case t := <-timer.C:
		return &t
	}
}

// ExponentialBackoff returns base * 2^(attempt-1), attempts are counted from 1.
func ExponentialBackoff(base time.Duration, attempt uint) time.Duration {
	if attempt <= 1 {
		return base
	}
	return base << (attempt - 1)
}

package db

import (
	"context"
	"fmt"
	"time"
)

const readyPollInterval = 100 * time.Millisecond

// WaitReady pings p until it answers or timeout elapses. The returned error
// carries the last ping failure.
func WaitReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lastErr := p.Ping(ctx)
	if lastErr == nil {
		return nil
	}

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("store not ready after %s: %w (last ping: %w)", timeout, ctx.Err(), lastErr)
		case <-ticker.C:
			if lastErr = p.Ping(ctx); lastErr == nil {
				return nil
			}
		}
	}
}

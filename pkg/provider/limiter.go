package provider

import (
	"context"
)

// ConcurrencyLimiter bounds in-flight calls to one provider with a
// channel semaphore. Each provider gets its own limiter so a slow
// backend never starves the others.
type ConcurrencyLimiter struct {
	maxConcurrent int
	semaphore     chan struct{}
}

// NewConcurrencyLimiter creates a limiter with the given bound.
func NewConcurrencyLimiter(maxConcurrent int) *ConcurrencyLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ConcurrencyLimiter{
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
	}
}

// Acquire blocks until a slot is free or the context is done.
func (cl *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	select {
	case cl.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (cl *ConcurrencyLimiter) Release() {
	select {
	case <-cl.semaphore:
	default:
	}
}

// Max returns the configured bound.
func (cl *ConcurrencyLimiter) Max() int {
	return cl.maxConcurrent
}

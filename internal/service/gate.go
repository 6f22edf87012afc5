package service

import (
	"context"
	"sync"
	"time"
)

// Gate serializes mutating operations. The journal has a single logical
// writer; the gate makes concurrent HTTP requests behave as one.
type Gate struct {
	mu sync.Mutex
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Run executes fn while holding the gate. fn must not call Run again.
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(ctx)
}

// Clock returns the current time. Services take one so tests can freeze it.
type Clock func() time.Time

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

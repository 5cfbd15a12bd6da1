package transport

import (
	"context"
	"sync"
)

// refreshCall is the shared outcome of one in-flight refresh. ok is written
// by the owning goroutine before done is closed.
type refreshCall struct {
	done chan struct{}
	ok   bool
}

// coordinator collapses concurrently triggered refresh attempts into a single
// network round trip. The nullable in-flight handle is the sole arbiter of
// "is a refresh already happening" at the request level; every 401 that
// arrives while a refresh is in flight waits on the same handle and observes
// the same outcome. The session manager's own refreshing flag is a second,
// store-level guard underneath this one.
type coordinator struct {
	mu   sync.Mutex
	call *refreshCall
}

// refresh obtains a fresh access token, reusing an in-flight attempt when one
// exists. Only the goroutine that owns the network call invokes onFailure, so
// a failed refresh triggers the sign-in redirect exactly once no matter how
// many requests were waiting on it.
func (c *coordinator) refresh(ctx context.Context, session TokenSource, onFailure func()) bool {
	c.mu.Lock()
	if c.call != nil {
		call := c.call
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.ok
		case <-ctx.Done():
			return false
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.call = call
	c.mu.Unlock()

	call.ok = session.RefreshAccessToken(ctx)

	c.mu.Lock()
	c.call = nil
	c.mu.Unlock()
	close(call.done)

	if !call.ok && onFailure != nil {
		onFailure()
	}
	return call.ok
}

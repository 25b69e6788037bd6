// Package async runs handlers detached from the caller's cancellation.
package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// dispatch calls done after the handler result or panic has been handled
func dispatch(ctx context.Context, handler func(ctx context.Context) error, done func()) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer done()
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))

				if hub := sentry.GetHubFromContext(newCtx); hub != nil {
					hub.RecoverWithContext(newCtx, r)
				}
			}
		}()

		if err := handler(newCtx); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "error", err)
		}
	}()
}

// newBackgroundContext creates a context.Background() carrying the logger and Sentry hub
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		newCtx = sentry.SetHubOnContext(newCtx, hub)
	}
	return newCtx
}

// Group tracks dispatched handlers so shutdown can wait for them
type Group struct {
	wg sync.WaitGroup
}

// Dispatch executes handler in a new goroutine with a background context that keeps
// the caller's logger and Sentry hub, and tracks it until it returns or panics. Returned
// errors and panics are logged; panics are also sent to the hub when one is present.
func (g *Group) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	g.wg.Add(1)
	dispatch(ctx, handler, g.wg.Done)
}

// Wait blocks until every tracked handler has finished or ctx is done
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "handlers still running")
	}
}

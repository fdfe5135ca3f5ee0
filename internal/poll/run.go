package poll

import (
	"context"
	"time"
)

type connectRequest struct {
	ctx   context.Context
	uri   string
	reply chan error
}

// Run owns the App until ctx ends: it serves connect requests and ticks every
// UpdateInterval while polling. A connect blocks the loop until it completes.
// A tick that overruns the interval delays the next one; ticks never overlap.
func (a *App) Run(ctx context.Context) error {
	defer close(a.stopped)
	defer a.Close()

	if a.cfg.AutoConnect {
		if err := a.Connect(ctx, ""); err != nil {
			a.logger.Error("auto-connect failed", "uri", a.cfg.ConnectionURI, "err", err)
		}
	}

	ticker := time.NewTicker(a.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-a.requests:
			err := a.Connect(req.ctx, req.uri)
			if err != nil {
				a.logger.Error("connect failed", "uri", req.uri, "err", err)
			}
			req.reply <- err
		case <-ticker.C:
			a.Tick()
		}
	}
}

// Request asks the running loop to connect to uri and waits for the outcome.
// An empty uri selects the configured connection string.
func (a *App) Request(ctx context.Context, uri string) error {
	req := connectRequest{ctx: ctx, uri: uri, reply: make(chan error, 1)}

	select {
	case a.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.stopped:
		return ErrStopped
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

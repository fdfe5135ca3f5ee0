// Package fake provides an in-memory telemetry link for testing.
package fake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

// Link implements link.Link over a buffered channel the test pushes into.
type Link struct {
	inbox chan message.Message

	mu            sync.Mutex
	closed        bool
	paramRequests int
	lastTarget    link.Target

	// Error simulation
	heartbeatErr error
	paramsErr    error
}

// New creates a fake link whose queue holds up to size messages.
func New(size int) *Link {
	if size <= 0 {
		size = link.InboxSize
	}
	return &Link{inbox: make(chan message.Message, size)}
}

// Push queues messages as if they had arrived from the vehicle.
// Messages pushed after Close are dropped.
func (f *Link) Push(msgs ...message.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	for _, m := range msgs {
		f.inbox <- m
	}
}

// FailHeartbeat makes WaitHeartbeat return err.
func (f *Link) FailHeartbeat(err error) {
	f.mu.Lock()
	f.heartbeatErr = err
	f.mu.Unlock()
}

// FailParams makes RequestParams return err.
func (f *Link) FailParams(err error) {
	f.mu.Lock()
	f.paramsErr = err
	f.mu.Unlock()
}

// WaitHeartbeat implements link.Link.
func (f *Link) WaitHeartbeat(ctx context.Context) (link.Target, error) {
	f.mu.Lock()
	err := f.heartbeatErr
	f.mu.Unlock()
	if err != nil {
		return link.Target{}, err
	}
	return link.AwaitHeartbeat(ctx, f.inbox)
}

// RequestParams implements link.Link.
func (f *Link) RequestParams(ctx context.Context, target link.Target, timeout time.Duration) ([]link.ParamEntry, error) {
	f.mu.Lock()
	f.paramRequests++
	f.lastTarget = target
	err := f.paramsErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return link.CollectParams(ctx, f.inbox, timeout)
}

// Recv implements link.Link.
func (f *Link) Recv() []message.Message {
	return link.Drain(f.inbox)
}

// Close implements link.Link.
func (f *Link) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return link.ErrClosed
	}
	f.closed = true
	close(f.inbox)
	return nil
}

// Closed reports whether Close has been called.
func (f *Link) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ParamRequests returns how many times parameters were requested and the last target.
func (f *Link) ParamRequests() (int, link.Target) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paramRequests, f.lastTarget
}

// ErrDial is returned by dialers built with FailingDialer.
var ErrDial = errors.New("fake dial failed")

// Dialer returns a link.Dialer that always hands out l and records each uri.
func Dialer(l *Link, uris *[]string) link.Dialer {
	var mu sync.Mutex
	return func(uri string) (link.Link, error) {
		if uris != nil {
			mu.Lock()
			*uris = append(*uris, uri)
			mu.Unlock()
		}
		return l, nil
	}
}

// FailingDialer returns a link.Dialer that always fails with ErrDial.
func FailingDialer() link.Dialer {
	return func(string) (link.Link, error) {
		return nil, ErrDial
	}
}

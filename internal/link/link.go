// Package link wraps the MAVLink telemetry link the calibrator reads from.
//
// The wire protocol, framing and transports belong to gomavlib. This package only
// selects an endpoint from a connection string, performs the handshake, enumerates
// parameters once, and hands decoded frames to the poll loop as message values.
package link

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

// ErrClosed is returned once the link has been closed.
var ErrClosed = errors.New("link closed")

// Target identifies the vehicle that answered the handshake.
type Target struct {
	System    uint8 `json:"system"`
	Component uint8 `json:"component"`
}

// ParamEntry is one row of the parameter enumeration. Never mutated after insertion.
type ParamEntry struct {
	ID         string  `json:"id"`
	Value      float64 `json:"value"`
	TotalCount int     `json:"totalCount"`
}

// Link is the southbound telemetry contract.
type Link interface {
	// WaitHeartbeat blocks until the first heartbeat arrives or ctx ends.
	WaitHeartbeat(ctx context.Context) (Target, error)

	// RequestParams asks target for its full parameter list and collects replies
	// until timeout passes with no further reply.
	RequestParams(ctx context.Context, target Target, timeout time.Duration) ([]ParamEntry, error)

	// Recv returns every message currently pending without blocking.
	Recv() []message.Message

	// Close releases the transport.
	Close() error
}

// Dialer opens a link for a connection string.
type Dialer func(uri string) (Link, error)

// AwaitHeartbeat reads in until a heartbeat arrives, discarding anything else.
func AwaitHeartbeat(ctx context.Context, in <-chan message.Message) (Target, error) {
	for {
		select {
		case <-ctx.Done():
			return Target{}, ctx.Err()
		case m, ok := <-in:
			if !ok {
				return Target{}, ErrClosed
			}
			if hb, ok := m.(message.Heartbeat); ok {
				return Target{System: hb.System, Component: hb.Component}, nil
			}
		}
	}
}

// CollectParams reads PARAM_VALUE replies from in until idle passes without one.
// Other traffic received meanwhile is discarded.
func CollectParams(ctx context.Context, in <-chan message.Message, idle time.Duration) ([]ParamEntry, error) {
	var params []ParamEntry

	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return params, ctx.Err()
		case <-timer.C:
			return params, nil
		case m, ok := <-in:
			if !ok {
				return params, nil
			}
			pv, ok := m.(message.ParamValue)
			if !ok {
				continue
			}
			params = append(params, ParamEntry{
				ID:         strings.TrimRight(pv.ID, "\x00"),
				Value:      float64(pv.Value),
				TotalCount: int(pv.Count),
			})
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(idle)
		}
	}
}

// Drain returns every message currently buffered in in without blocking.
func Drain(in <-chan message.Message) []message.Message {
	var out []message.Message
	for {
		select {
		case m, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

// Package poll owns the calibrator's application state and drives it.
//
// One goroutine, Run, owns every buffer: it dials the link on request, then on each
// tick drains pending telemetry, decodes it, latches setpoints and actuals, appends
// samples and hands the chart surface copies of the redrawn axes. Other goroutines
// only read published snapshots.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/FlyingRobots-Pequi/pidcal/internal/chart"
	"github.com/FlyingRobots-Pequi/pidcal/internal/config"
	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/decode"
	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
)

var (
	// ErrAlreadyConnected is returned by Connect outside the Disconnected state.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrStopped is returned to connect requests made after Run has returned.
	ErrStopped = errors.New("poll loop stopped")
)

// State is the connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connected
	Polling
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Polling:
		return "polling"
	default:
		return "disconnected"
	}
}

// Status is a point-in-time summary safe to hand to other goroutines.
type Status struct {
	State        string      `json:"state"`
	URI          string      `json:"uri,omitempty"`
	Target       link.Target `json:"target"`
	ConnectedAt  time.Time   `json:"connectedAt,omitempty"`
	Elapsed      float64     `json:"elapsed"`
	Params       int         `json:"params"`
	Ticks        uint64      `json:"ticks"`
	DecodeErrors uint64      `json:"decodeErrors"`
	Samples      int         `json:"samples"`
	Window       float64     `json:"windowSeconds"`
	MaxLength    int         `json:"maxDataLength"`
}

// App is the calibrator state. Connect and Tick must be called from a single
// goroutine; Run does that. Status and Params may be called from anywhere.
type App struct {
	cfg     *config.Config
	dial    link.Dialer
	surface chart.Surface
	logger  *log.Logger
	now     func() time.Time
	notify  func(Status)

	// Owned by the loop goroutine.
	state        State
	link         link.Link
	uri          string
	target       link.Target
	origin       time.Time
	latest       *controller.Latest
	buffer       *series.Buffer
	ticks        uint64
	decodeErrors uint64

	requests chan connectRequest
	stopped  chan struct{}

	// Published for readers.
	mu     sync.RWMutex
	status Status
	params *ParamTable
}

// Option customises an App.
type Option func(*App)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithSurface sets the chart surface. The default discards redraws.
func WithSurface(s chart.Surface) Option {
	return func(a *App) { a.surface = s }
}

// WithStatusListener registers fn to receive the status after every connection change.
// fn runs on the loop goroutine.
func WithStatusListener(fn func(Status)) Option {
	return func(a *App) { a.notify = fn }
}

// New creates a disconnected App.
func New(cfg *config.Config, dial link.Dialer, logger *log.Logger, opts ...Option) (*App, error) {
	buffer, err := series.NewBuffer(controller.All(), cfg.MaxDataLength)
	if err != nil {
		return nil, fmt.Errorf("create series buffer: %w", err)
	}

	a := &App{
		cfg:      cfg,
		dial:     dial,
		surface:  chart.Discard,
		logger:   logger,
		now:      time.Now,
		latest:   controller.NewLatest(),
		buffer:   buffer,
		requests: make(chan connectRequest),
		stopped:  make(chan struct{}),
		params:   NewParamTable(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.publish()
	return a, nil
}

// Connect dials uri, waits for the first heartbeat, enumerates parameters and starts
// polling. On failure the App stays Disconnected and the link is closed.
func (a *App) Connect(ctx context.Context, uri string) error {
	if a.state != Disconnected {
		return ErrAlreadyConnected
	}
	if uri == "" {
		uri = a.cfg.ConnectionURI
	}

	a.logger.Info("connecting", "uri", uri)
	l, err := a.dial(uri)
	if err != nil {
		return fmt.Errorf("dial %s: %w", uri, err)
	}

	hsCtx := ctx
	if a.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, a.cfg.HandshakeTimeout)
		defer cancel()
	}

	a.logger.Info("waiting for heartbeat")
	target, err := l.WaitHeartbeat(hsCtx)
	if err != nil {
		l.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	a.logger.Info("heartbeat received", "system", target.System, "component", target.Component)

	entries, err := l.RequestParams(ctx, target, a.cfg.ParamRequestTimeout)
	if err != nil {
		l.Close()
		return fmt.Errorf("parameter request: %w", err)
	}

	table := NewParamTable()
	for _, e := range entries {
		table.Put(e)
	}
	a.logger.Info("parameters received", "count", table.Len())

	a.link = l
	a.uri = uri
	a.target = target
	a.state = Connected
	a.latest.Reset()
	a.buffer.Reset()
	a.ticks = 0
	a.decodeErrors = 0
	a.origin = a.now()

	a.mu.Lock()
	a.params = table
	a.mu.Unlock()

	a.state = Polling
	a.publish()
	a.changed()
	return nil
}

// Tick runs one poll cycle. It does nothing unless polling.
func (a *App) Tick() {
	if a.state != Polling {
		return
	}
	a.ticks++

	for _, m := range a.link.Recv() {
		readings, err := decode.Decode(m)
		if err != nil {
			// The previous setpoint stays latched.
			a.decodeErrors++
			a.logger.Debug("decode failed", "kind", m.Kind(), "err", err)
		}
		for _, r := range readings {
			a.latest.Apply(r)
		}
	}

	now := a.elapsed()
	frame := chart.Frame{
		Now:   now,
		Range: series.VisibleRange(now, a.cfg.WindowSeconds),
	}

	for _, c := range controller.All() {
		if !a.latest.Ready(c.ID) {
			continue
		}
		for _, axis := range c.Axes {
			sp, act, ok := a.latest.Pair(c.ID, axis)
			if !ok {
				continue
			}
			key := series.Key{Controller: c.ID, Axis: axis}
			if !a.buffer.Append(key, now, sp, act) {
				continue
			}
			s, _ := a.buffer.Axis(key)
			frame.Axes = append(frame.Axes, chart.AxisFrame{Key: key, View: s.View()})
		}
	}

	if len(frame.Axes) > 0 {
		a.surface.Redraw(frame)
	}
	a.publish()
}

// elapsed returns seconds since the connection was established.
func (a *App) elapsed() float64 {
	return a.now().Sub(a.origin).Seconds()
}

// Close releases the link and returns to Disconnected.
func (a *App) Close() error {
	if a.link == nil {
		return nil
	}
	err := a.link.Close()
	a.link = nil
	a.state = Disconnected
	a.publish()
	a.changed()
	return err
}

func (a *App) changed() {
	if a.notify != nil {
		a.notify(a.Status())
	}
}

// publish refreshes the snapshot readers see.
func (a *App) publish() {
	st := Status{
		State:        a.state.String(),
		URI:          a.uri,
		Target:       a.target,
		Ticks:        a.ticks,
		DecodeErrors: a.decodeErrors,
		Samples:      a.buffer.Total(),
		Window:       a.cfg.WindowSeconds,
		MaxLength:    a.cfg.MaxDataLength,
	}
	if a.state != Disconnected {
		st.ConnectedAt = a.origin
		st.Elapsed = a.elapsed()
	}

	a.mu.Lock()
	st.Params = a.params.Len()
	a.status = st
	a.mu.Unlock()
}

// Status returns the latest published snapshot.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Params returns the parameter table in arrival order.
func (a *App) Params() []link.ParamEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.params.Entries()
}

// Series returns a copy of one axis. It must be called on the loop goroutine;
// HTTP readers use the chart surface instead.
func (a *App) Series(key series.Key) (series.View, bool) {
	s, ok := a.buffer.Axis(key)
	if !ok {
		return series.View{}, false
	}
	return s.View(), true
}

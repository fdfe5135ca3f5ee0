package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v2"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"
	"github.com/charmbracelet/log"

	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
)

// Defaults for Options.
const (
	DefaultURI      = "udpout:127.0.0.1:14550"
	DefaultSystemID = 1
	DefaultRate     = 20 * time.Millisecond
)

// HeartbeatInterval is how often the emulator announces itself.
const HeartbeatInterval = time.Second

// Options configures Run. Zero values take the defaults.
type Options struct {
	URI      string
	SystemID int
	Rate     time.Duration
	Gains    *Gains
	Profile  Profile
	Logger   *log.Logger
}

// Run serves the emulated vehicle on opts.URI until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.URI == "" {
		opts.URI = DefaultURI
	}
	if opts.SystemID == 0 {
		opts.SystemID = DefaultSystemID
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	gains := DefaultGains()
	if opts.Gains != nil {
		gains = *opts.Gains
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	ep, err := link.ParseURI(opts.URI)
	if err != nil {
		return err
	}
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:      []gomavlib.EndpointConf{ep.Conf()},
		Dialect:        common.Dialect,
		OutVersion:     gomavlib.V2,
		OutSystemID:    byte(opts.SystemID),
		OutComponentID: 1, // MAV_COMP_ID_AUTOPILOT1
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", ep, err)
	}

	logger.Info("simulator started", "endpoint", ep, "system", opts.SystemID, "rate", opts.Rate)

	params := ParamValues(gains.Params())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for evt := range node.Events() {
			switch e := evt.(type) {
			case *gomavlib.EventChannelOpen:
				logger.Info("channel open", "channel", e.Channel)
			case *gomavlib.EventChannelClose:
				logger.Info("channel closed", "channel", e.Channel)
			case *gomavlib.EventFrame:
				if _, ok := e.Message().(*common.MessageParamRequestList); ok {
					logger.Info("parameter list requested", "from", e.SystemID(), "count", len(params))
					for _, p := range params {
						node.WriteMessageAll(p)
					}
				}
			}
		}
	}()

	vehicle := NewVehicle(gains, opts.Profile)
	step := time.NewTicker(opts.Rate)
	heartbeat := time.NewTicker(HeartbeatInterval)
	defer step.Stop()
	defer heartbeat.Stop()

	node.WriteMessageAll(Heartbeat())
	for {
		select {
		case <-ctx.Done():
			node.Close()
			wg.Wait()
			logger.Info("simulator stopped", "elapsed", vehicle.Elapsed())
			return nil

		case <-heartbeat.C:
			node.WriteMessageAll(Heartbeat())

		case <-step.C:
			vehicle.Step(opts.Rate)
			bootMs := uint32(vehicle.Elapsed().Milliseconds())
			for _, m := range vehicle.Telemetry() {
				if out := Encode(m, bootMs); out != nil {
					node.WriteMessageAll(out)
				}
			}
		}
	}
}

package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v2"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"

	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

// InboxSize bounds the messages buffered between the library and the poll loop.
// When full the pump blocks and flow control is left to gomavlib.
const InboxSize = 1024

// ComponentID is the component id the calibrator sends with.
const ComponentID = 190 // MAV_COMP_ID_MISSIONPLANNER

// MAVLink is a Link backed by a gomavlib node.
type MAVLink struct {
	node     *gomavlib.Node
	endpoint Endpoint
	inbox    chan message.Message
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Dial opens the endpoint named by uri and starts receiving.
func Dial(uri string, systemID int) (*MAVLink, error) {
	ep, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:      []gomavlib.EndpointConf{ep.Conf()},
		Dialect:        common.Dialect,
		OutVersion:     gomavlib.V2,
		OutSystemID:    byte(systemID),
		OutComponentID: ComponentID,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ep, err)
	}

	l := &MAVLink{
		node:     node,
		endpoint: ep,
		inbox:    make(chan message.Message, InboxSize),
		done:     make(chan struct{}),
	}

	l.wg.Add(1)
	go l.pump()

	return l, nil
}

// NewDialer returns a Dialer that opens MAVLink links with the given system id.
func NewDialer(systemID int) Dialer {
	return func(uri string) (Link, error) {
		return Dial(uri, systemID)
	}
}

// pump moves recognised frames from the node into the inbox.
func (l *MAVLink) pump() {
	defer l.wg.Done()
	defer close(l.inbox)

	for evt := range l.node.Events() {
		frm, ok := evt.(*gomavlib.EventFrame)
		if !ok {
			continue
		}
		m, ok := Convert(frm.Message(), frm.SystemID(), frm.ComponentID())
		if !ok {
			continue
		}
		// After Close the node is still drained so it can shut down.
		select {
		case l.inbox <- m:
		case <-l.done:
		}
	}
}

// WaitHeartbeat implements Link.
func (l *MAVLink) WaitHeartbeat(ctx context.Context) (Target, error) {
	return AwaitHeartbeat(ctx, l.inbox)
}

// RequestParams implements Link.
func (l *MAVLink) RequestParams(ctx context.Context, target Target, timeout time.Duration) ([]ParamEntry, error) {
	l.node.WriteMessageAll(&common.MessageParamRequestList{
		TargetSystem:    target.System,
		TargetComponent: target.Component,
	})
	return CollectParams(ctx, l.inbox, timeout)
}

// Recv implements Link.
func (l *MAVLink) Recv() []message.Message {
	return Drain(l.inbox)
}

// Endpoint returns the parsed connection string.
func (l *MAVLink) Endpoint() Endpoint {
	return l.endpoint
}

// Close implements Link.
func (l *MAVLink) Close() error {
	l.once.Do(func() {
		close(l.done)
		l.node.Close()
		l.wg.Wait()
	})
	return nil
}

// Convert maps a gomavlib dialect message to the calibrator's message set.
// The second result is false for messages the calibrator does not use.
func Convert(msg interface{}, systemID, componentID byte) (message.Message, bool) {
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		return message.Heartbeat{
			System:    systemID,
			Component: componentID,
			Autopilot: uint8(m.Autopilot),
			Vehicle:   uint8(m.Type),
		}, true

	case *common.MessageParamValue:
		return message.ParamValue{
			ID:    m.ParamId,
			Value: m.ParamValue,
			Count: m.ParamCount,
			Index: m.ParamIndex,
		}, true

	case *common.MessageAttitudeTarget:
		return message.AttitudeTarget{
			Q:             m.Q,
			BodyRollRate:  m.BodyRollRate,
			BodyPitchRate: m.BodyPitchRate,
			BodyYawRate:   m.BodyYawRate,
		}, true

	case *common.MessageAttitude:
		return message.Attitude{
			Roll:       m.Roll,
			Pitch:      m.Pitch,
			Yaw:        m.Yaw,
			RollSpeed:  m.Rollspeed,
			PitchSpeed: m.Pitchspeed,
			YawSpeed:   m.Yawspeed,
		}, true

	case *common.MessagePositionTargetLocalNed:
		return message.PositionTarget{
			X: m.X, Y: m.Y, Z: m.Z,
			VX: m.Vx, VY: m.Vy, VZ: m.Vz,
		}, true

	case *common.MessageLocalPositionNed:
		return message.LocalPosition{
			X: m.X, Y: m.Y, Z: m.Z,
			VX: m.Vx, VY: m.Vy, VZ: m.Vz,
		}, true
	}

	return nil, false
}

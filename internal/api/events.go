package api

import (
	"github.com/FlyingRobots-Pequi/pidcal/internal/poll"
	"github.com/FlyingRobots-Pequi/pidcal/internal/telemetry"
)

// StatusEvent is the SSE event announcing a connection change.
func StatusEvent(st poll.Status) telemetry.Event {
	return telemetry.Event{
		Type: telemetry.EventStatus,
		Data: map[string]interface{}{
			"state":       st.State,
			"uri":         st.URI,
			"target":      st.Target,
			"connectedAt": st.ConnectedAt,
			"params":      st.Params,
		},
	}
}

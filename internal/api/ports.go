package api

import (
	"context"
	"io"
	"net/http"

	"github.com/FlyingRobots-Pequi/pidcal/internal/chart"
	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/poll"
	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
	"github.com/FlyingRobots-Pequi/pidcal/internal/telemetry"
)

// AppPort is what the API needs from the poll loop.
type AppPort interface {
	Status() poll.Status
	Params() []link.ParamEntry
	Request(ctx context.Context, uri string) error
}

// ChartPort is what the API needs from the chart surface.
type ChartPort interface {
	View(key series.Key) (series.View, bool)
	Range() (now float64, rng series.Range)
	Render(w io.Writer, key series.Key) error
}

// TelemetryPort is what the API needs from the SSE hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

var (
	_ AppPort       = (*poll.App)(nil)
	_ ChartPort     = (*chart.WebSurface)(nil)
	_ TelemetryPort = (*telemetry.Hub)(nil)
)

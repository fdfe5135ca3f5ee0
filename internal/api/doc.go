// Package api serves the chart surface: a small JSON API under /api/v1, an SSE
// stream of redraw events, server-rendered PNG charts and the operator page.
package api

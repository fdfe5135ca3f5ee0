// Package telemetry fans chart events out to browser clients over Server-Sent Events.
//
// Every client first receives a ready event carrying a status snapshot. Events are
// buffered per stream (one stream per controller, plus the global stream) so a client
// reconnecting with a Last-Event-ID header is replayed what it missed. While at least
// one client is connected a heartbeat event is published periodically.
package telemetry

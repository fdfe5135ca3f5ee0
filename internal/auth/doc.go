// Package auth protects the chart surface with optional HS256 bearer tokens.
//
// With no secret configured every request is accepted as the anonymous operator.
// With a secret, every route except health needs a token carrying a subject and
// scopes: telemetry for reads, control for connect.
package auth

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/poll"
)

// Error codes.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyConnected = "ALREADY_CONNECTED"
	CodeConnectFailed    = "CONNECT_FAILED"
	CodeHandshakeTimeout = "HANDSHAKE_TIMEOUT"
	CodeUnavailable      = "UNAVAILABLE"
	CodeInternal         = "INTERNAL"
	CodeSuccess          = "SUCCESS"
)

// ErrNotFound is returned for unknown controllers and axes.
var ErrNotFound = errors.New("not found")

// APIError is a mapped error ready to be written.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// ToAPIError maps err to a status code and API code. Connect failures that match no
// known cause are reported as CONNECT_FAILED.
func ToAPIError(err error) APIError {
	switch {
	case errors.Is(err, link.ErrInvalidURI):
		return APIError{http.StatusBadRequest, CodeBadRequest, err.Error()}
	case errors.Is(err, ErrNotFound):
		return APIError{http.StatusNotFound, CodeNotFound, "Resource not found"}
	case errors.Is(err, poll.ErrAlreadyConnected):
		return APIError{http.StatusConflict, CodeAlreadyConnected, "A connection is already established"}
	case errors.Is(err, poll.ErrStopped):
		return APIError{http.StatusServiceUnavailable, CodeUnavailable, "Poll loop is not running"}
	case errors.Is(err, context.DeadlineExceeded):
		return APIError{http.StatusGatewayTimeout, CodeHandshakeTimeout, "No heartbeat before the deadline"}
	default:
		return APIError{http.StatusBadGateway, CodeConnectFailed, err.Error()}
	}
}

func writeAPIError(w http.ResponseWriter, err error) APIError {
	e := ToAPIError(err)
	WriteError(w, e.StatusCode, e.Code, e.Message, nil)
	return e
}

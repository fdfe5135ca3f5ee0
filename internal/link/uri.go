package link

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v2"
)

// ErrInvalidURI is returned for connection strings that name no known transport.
var ErrInvalidURI = errors.New("invalid connection URI")

// DefaultBaud is used for serial devices given without a baud rate.
const DefaultBaud = 57600

// Transport selects how the link reaches the flight controller.
type Transport string

const (
	UDPServer    Transport = "udpin"
	UDPClient    Transport = "udpout"
	UDPBroadcast Transport = "udpbcast"
	TCPClient    Transport = "tcp"
	TCPServer    Transport = "tcpin"
	Serial       Transport = "serial"
)

// Endpoint is a parsed connection string.
type Endpoint struct {
	Transport Transport
	Address   string // host:port, or device path for serial
	Baud      int
}

func (e Endpoint) String() string {
	if e.Transport == Serial {
		return fmt.Sprintf("serial:%s:%d", e.Address, e.Baud)
	}
	return fmt.Sprintf("%s:%s", e.Transport, e.Address)
}

// ParseURI parses connection strings in the form accepted by common ground stations:
//
//	udp:HOST:PORT, udpin:HOST:PORT   listen for datagrams
//	udpout:HOST:PORT                 send datagrams to HOST
//	udpbcast:HOST:PORT               broadcast
//	tcp:HOST:PORT, tcpin:HOST:PORT   TCP client / server
//	serial:DEVICE[:BAUD], DEVICE[,BAUD], /dev/..., COMn
func ParseURI(uri string) (Endpoint, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Endpoint{}, fmt.Errorf("%w: empty", ErrInvalidURI)
	}

	scheme, rest, found := strings.Cut(uri, ":")
	if found {
		switch strings.ToLower(scheme) {
		case "udp", "udpin":
			return networkEndpoint(UDPServer, rest)
		case "udpout":
			return networkEndpoint(UDPClient, rest)
		case "udpbcast":
			return networkEndpoint(UDPBroadcast, rest)
		case "tcp":
			return networkEndpoint(TCPClient, rest)
		case "tcpin":
			return networkEndpoint(TCPServer, rest)
		case "serial":
			return serialEndpoint(rest, ":")
		}
	}

	if isDevicePath(uri) {
		return serialEndpoint(uri, ",")
	}

	return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidURI, uri)
}

func isDevicePath(s string) bool {
	return strings.HasPrefix(s, "/dev/") || strings.HasPrefix(strings.ToUpper(s), "COM")
}

func networkEndpoint(t Transport, hostport string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %s: %v", ErrInvalidURI, hostport, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return Endpoint{}, fmt.Errorf("%w: bad port %q", ErrInvalidURI, port)
	}
	return Endpoint{Transport: t, Address: net.JoinHostPort(host, port)}, nil
}

func serialEndpoint(s, sep string) (Endpoint, error) {
	device, baud := s, DefaultBaud
	if i := strings.LastIndex(s, sep); i >= 0 {
		b, err := strconv.Atoi(s[i+1:])
		if err != nil || b <= 0 {
			return Endpoint{}, fmt.Errorf("%w: bad baud rate %q", ErrInvalidURI, s[i+1:])
		}
		device, baud = s[:i], b
	}
	if device == "" {
		return Endpoint{}, fmt.Errorf("%w: missing serial device", ErrInvalidURI)
	}
	return Endpoint{Transport: Serial, Address: device, Baud: baud}, nil
}

// Conf returns the gomavlib endpoint configuration.
func (e Endpoint) Conf() gomavlib.EndpointConf {
	switch e.Transport {
	case UDPClient:
		return gomavlib.EndpointUDPClient{Address: e.Address}
	case UDPBroadcast:
		_, port, _ := net.SplitHostPort(e.Address)
		return gomavlib.EndpointUDPBroadcast{BroadcastAddress: e.Address, LocalAddress: ":" + port}
	case TCPClient:
		return gomavlib.EndpointTCPClient{Address: e.Address}
	case TCPServer:
		return gomavlib.EndpointTCPServer{Address: e.Address}
	case Serial:
		return gomavlib.EndpointSerial{Device: e.Address, Baud: e.Baud}
	default:
		return gomavlib.EndpointUDPServer{Address: e.Address}
	}
}

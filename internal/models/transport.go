package models

import "strings"

// Transport is the mode of travel on a route
type Transport string

const (
	TransportFlight   Transport = "flight"
	TransportBus      Transport = "bus"
	TransportTrain    Transport = "train"
	TransportNightBus Transport = "night-bus"
)

// DefaultRouteColor is used for modes without a colour of their own
const DefaultRouteColor = "#808080"

var transportColors = map[Transport]string{
	TransportFlight:   "#1E90FF",
	TransportBus:      "#32CD32",
	TransportTrain:    "#000000",
	TransportNightBus: "#6A5ACD",
}

// Labels written by the first version of the web client
var transportAliases = map[string]Transport{
	"비행기":      TransportFlight,
	"버스":       TransportBus,
	"기차":       TransportTrain,
	"야간버스":     TransportNightBus,
	"plane":    TransportFlight,
	"nightbus": TransportNightBus,
}

// ParseTransport normalizes a transport label
func ParseTransport(s string) Transport {
	s = strings.TrimSpace(s)
	if t, ok := transportAliases[s]; ok {
		return t
	}
	lower := Transport(strings.ToLower(s))
	if _, ok := transportColors[lower]; ok {
		return lower
	}
	if t, ok := transportAliases[string(lower)]; ok {
		return t
	}
	return Transport(s)
}

// Known reports whether the mode is one the map can colour
func (t Transport) Known() bool {
	_, ok := transportColors[ParseTransport(string(t))]
	return ok
}

// Color returns the stroke colour used to draw the route
func (t Transport) Color() string {
	if c, ok := transportColors[ParseTransport(string(t))]; ok {
		return c
	}
	return DefaultRouteColor
}

// Transports lists the known modes in display order
func Transports() []Transport {
	return []Transport{TransportFlight, TransportBus, TransportTrain, TransportNightBus}
}

package models

// TimelineEntry is one stay in the date-ordered timeline
type TimelineEntry struct {
	CityID string `json:"city_id"`
	City   string `json:"city"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// RouteTimeline is the sequence of city names reached by following routes
// from the single starting city. Truncated is set when the walk stopped on
// a city it had already visited.
type RouteTimeline struct {
	Cities    []string `json:"cities"`
	Truncated bool     `json:"truncated"`
}

// ExpenseTotal is the authoritative spend with its breakdown
type ExpenseTotal struct {
	Total  float64 `json:"total_spent"`
	Cities float64 `json:"cities"`
	Routes float64 `json:"routes"`
}

// MapPreset is a named camera position
type MapPreset struct {
	Name   string  `json:"name"`
	Center Coords  `json:"center"`
	Zoom   float64 `json:"zoom"`
}

// MapPresets are the fly-to targets offered by the map
var MapPresets = []MapPreset{
	{Name: "world", Center: Coords{20, 0}, Zoom: 2.3},
	{Name: "south-america", Center: Coords{-10, -65}, Zoom: 4.3},
}

// MapMarker is a city marker
type MapMarker struct {
	ID     string `json:"id"`
	City   string `json:"city"`
	Coords Coords `json:"coords"`
}

// MapLine is a route drawn between two markers
type MapLine struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Path      [2]Coords `json:"path"`
	Transport Transport `json:"transport"`
	Color     string    `json:"color"`
}

// LongPress is how long a marker must be held before connect mode starts,
// in milliseconds
type LongPress struct {
	MouseMS int `json:"mouse_ms"`
	TouchMS int `json:"touch_ms"`
}

// DefaultLongPress matches the hold times the web client has always used
var DefaultLongPress = LongPress{MouseMS: 2000, TouchMS: 1200}

// TransportStyle is one legend entry
type TransportStyle struct {
	Transport Transport `json:"transport"`
	Color     string    `json:"color"`
}

// TransportLegend lists every known mode with its colour
func TransportLegend() []TransportStyle {
	modes := Transports()
	legend := make([]TransportStyle, 0, len(modes))
	for _, t := range modes {
		legend = append(legend, TransportStyle{Transport: t, Color: t.Color()})
	}
	return legend
}

// MapView is everything the map collaborator needs to render
type MapView struct {
	Markers    []MapMarker      `json:"markers"`
	Lines      []MapLine        `json:"lines"`
	Presets    []MapPreset      `json:"presets"`
	LongPress  LongPress        `json:"long_press"`
	Transports []TransportStyle `json:"transports"`
}

// ConnectState is the connect mode state of one admin
type ConnectState struct {
	Mode     string `json:"mode"`
	FromID   string `json:"from_id,omitempty"`
	FromCity string `json:"from_city,omitempty"`
}

// MutationResult is returned by every successful itinerary mutation so
// the client can settle on freshly derived views
type MutationResult struct {
	Applied    bool            `json:"applied"`
	City       *City           `json:"city,omitempty"`
	Route      *Route          `json:"route,omitempty"`
	DeletedIDs []string        `json:"deleted_route_ids,omitempty"`
	TotalSpent float64         `json:"total_spent"`
	Timeline   []TimelineEntry `json:"timeline"`
}

// ConnectResponse carries the connect state after a transition and, when a
// route was created, the mutation result
type ConnectResponse struct {
	State  ConnectState    `json:"state"`
	Result *MutationResult `json:"result,omitempty"`
}

// ReloadResult reports what the mirror holds after a reload
type ReloadResult struct {
	Cities int `json:"cities"`
	Routes int `json:"routes"`
}

// SessionInfo reports who is looking at the map
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role"`
	Email         string `json:"email,omitempty"`
}

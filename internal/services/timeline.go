package services

import (
	"sort"

	"github.com/travelmap/itinerary-backend/internal/models"
)

// BuildDateTimeline lists every city with both stay dates, ordered by
// stay-in. Zero padded ISO dates sort correctly as strings; ties keep the
// input order.
func BuildDateTimeline(cities []models.City) []models.TimelineEntry {
	entries := make([]models.TimelineEntry, 0, len(cities))
	for _, c := range cities {
		if !c.Dated() {
			continue
		}
		entries = append(entries, models.TimelineEntry{
			CityID: c.ID,
			City:   c.City,
			Start:  c.StayIn,
			End:    c.StayOut,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})
	return entries
}

// BuildRouteTimeline follows routes from the single city that is an
// origin but never a destination. Anything other than exactly one such
// city yields an empty timeline. Routes whose endpoints are not in cities
// are ignored. The walk stops and flags Truncated when it would revisit a
// city.
func BuildRouteTimeline(cities []models.City, routes []models.Route) models.RouteTimeline {
	result := models.RouteTimeline{Cities: []string{}}

	names := make(map[string]string, len(cities))
	for _, c := range cities {
		names[c.ID] = c.City
	}

	var edges []models.Route
	origins := map[string]bool{}
	destinations := map[string]bool{}
	for _, r := range routes {
		if _, ok := names[r.FromID]; !ok {
			continue
		}
		if _, ok := names[r.ToID]; !ok {
			continue
		}
		edges = append(edges, r)
		origins[r.FromID] = true
		destinations[r.ToID] = true
	}

	var start string
	sources := map[string]bool{}
	for _, r := range edges {
		if !destinations[r.FromID] {
			sources[r.FromID] = true
			start = r.FromID
		}
	}
	if len(sources) != 1 {
		return result
	}

	visited := map[string]bool{start: true}
	result.Cities = append(result.Cities, names[start])
	current := start
	for {
		next, ok := successor(edges, current)
		if !ok {
			break
		}
		if visited[next] {
			result.Truncated = true
			break
		}
		visited[next] = true
		result.Cities = append(result.Cities, names[next])
		current = next
	}
	return result
}

// successor returns the destination of the first route leaving from
func successor(edges []models.Route, from string) (string, bool) {
	for _, r := range edges {
		if r.FromID == from {
			return r.ToID, true
		}
	}
	return "", false
}

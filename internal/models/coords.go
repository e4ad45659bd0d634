package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
)

// Coords is a [latitude, longitude] pair. It encodes as a two element
// array in JSON and BSON and as DOUBLE PRECISION[] in PostgreSQL.
type Coords [2]float64

// NewCoords builds a coordinate pair
func NewCoords(lat, lng float64) Coords {
	return Coords{lat, lng}
}

// Lat returns the latitude
func (c Coords) Lat() float64 { return c[0] }

// Lng returns the longitude
func (c Coords) Lng() float64 { return c[1] }

// Value implements the driver.Valuer interface
func (c Coords) Value() (driver.Value, error) {
	return pq.Float64Array(c[:]).Value()
}

// Scan implements the sql.Scanner interface
func (c *Coords) Scan(src interface{}) error {
	if src == nil {
		*c = Coords{}
		return nil
	}
	var arr pq.Float64Array
	if err := arr.Scan(src); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("coords: expected 2 elements, got %d", len(arr))
	}
	*c = Coords{arr[0], arr[1]}
	return nil
}

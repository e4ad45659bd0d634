package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DateLayout is the calendar date format used for stays
const DateLayout = "2006-01-02"

// Expense is a single line item spent in a city
type Expense struct {
	Title string `json:"title" bson:"title"`
	Cost  Cost   `json:"cost" bson:"cost"`
}

// Expenses is an ordered list of expense line items. A nil list is
// always written and rendered as an empty array.
type Expenses []Expense

// OrEmpty returns a non-nil list
func (e Expenses) OrEmpty() Expenses {
	if e == nil {
		return Expenses{}
	}
	return e
}

// MarshalJSON implements json.Marshaler
func (e Expenses) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Expense(e.OrEmpty()))
}

// MarshalBSONValue stores nil as an empty array instead of null
func (e Expenses) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue([]Expense(e.OrEmpty()))
}

// Value implements the driver.Valuer interface (JSONB)
func (e Expenses) Value() (driver.Value, error) {
	b, err := json.Marshal([]Expense(e.OrEmpty()))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface (JSONB)
func (e *Expenses) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*e = Expenses{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("expenses: unsupported source type %T", src)
	}
	var items []Expense
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expenses: %w", err)
	}
	*e = Expenses(items).OrEmpty()
	return nil
}

// City is a place on the itinerary with a stay range and expenses
type City struct {
	ID      string   `json:"id" bson:"_id,omitempty" db:"id"`
	City    string   `json:"city" bson:"City" db:"name"`
	Coords  Coords   `json:"coords" bson:"Coords" db:"coords"`
	StayIn  string   `json:"stay_in" bson:"Stay_in" db:"stay_in"`
	StayOut string   `json:"stay_out" bson:"Stay_out" db:"stay_out"`
	Spent   Expenses `json:"spent" bson:"Spent" db:"spent"`
}

// Dated reports whether both stay dates are set
func (c *City) Dated() bool {
	return c.StayIn != "" && c.StayOut != ""
}

// Route is a directed transport link between two cities. FromID and ToID
// are the link; From and To are display names filled in from the current
// city set when the route is read.
type Route struct {
	ID        string    `json:"id" bson:"_id,omitempty" db:"id"`
	FromID    string    `json:"from_id" bson:"FromId,omitempty" db:"from_id"`
	ToID      string    `json:"to_id" bson:"ToId,omitempty" db:"to_id"`
	From      string    `json:"from,omitempty" bson:"From,omitempty" db:"-"`
	To        string    `json:"to,omitempty" bson:"To,omitempty" db:"-"`
	Transport Transport `json:"transport" bson:"Transport" db:"transport"`
	Cost      Cost      `json:"cost" bson:"Cost" db:"cost"`
	Note      string    `json:"note" bson:"Note" db:"note"`
}

// Touches reports whether the route starts or ends at the given city
func (r *Route) Touches(cityID string) bool {
	return r.FromID == cityID || r.ToID == cityID
}

// CityInput holds the editable fields of a city
type CityInput struct {
	City    string         `json:"city" binding:"required"`
	StayIn  string         `json:"stay_in"`
	StayOut string         `json:"stay_out"`
	Spent   []ExpenseInput `json:"spent"`
}

// ExpenseInput is one expense row as submitted by the form
type ExpenseInput struct {
	Title string    `json:"title"`
	Cost  CostInput `json:"cost"`
}

// Blank reports whether the row was left empty
func (e ExpenseInput) Blank() bool {
	return e.Title == "" && !e.Cost.Valid
}

// Expenses converts the submitted rows, dropping rows left entirely blank
func (in CityInput) Expenses() Expenses {
	out := Expenses{}
	for _, row := range in.Spent {
		if row.Blank() {
			continue
		}
		out = append(out, Expense{Title: row.Title, Cost: row.Cost.Cost()})
	}
	return out
}

// CreateCityRequest creates a city at a point picked on the map. Lat and Lng
// are pointers so an omitted point is rejected while 0 stays valid.
type CreateCityRequest struct {
	CityInput
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// UpdateCityRequest edits a city in place. Coordinates cannot change.
type UpdateCityRequest struct {
	CityInput
}

// RouteInput holds the editable fields of a route
type RouteInput struct {
	Transport Transport `json:"transport" binding:"required"`
	Cost      CostInput `json:"cost"`
	Note      string    `json:"note"`
}

// CreateRouteRequest links two existing cities
type CreateRouteRequest struct {
	RouteInput
	FromID string `json:"from_id" binding:"required"`
	ToID   string `json:"to_id" binding:"required"`
}

// UpdateRouteRequest edits a route. Endpoints cannot change.
type UpdateRouteRequest struct {
	RouteInput
}

// ParseDate parses a stay date, returning false when empty
func ParseDate(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ConnectStartRequest picks the origin city of a new route
type ConnectStartRequest struct {
	FromID string `json:"from_id" binding:"required"`
}

// ConnectCompleteRequest picks the destination and fills in the route
type ConnectCompleteRequest struct {
	RouteInput
	ToID string `json:"to_id" binding:"required"`
}

package validator

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyName indicates a city name is blank
	ErrEmptyName = errors.New("city name cannot be empty")

	// ErrNameTooLong indicates a city name exceeds MaxNameLength runes
	ErrNameTooLong = errors.New("city name is too long")

	// ErrInvalidDate indicates a stay date is not YYYY-MM-DD
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

	// ErrStayOrder indicates stay-out falls before stay-in
	ErrStayOrder = errors.New("stay-out date cannot be before stay-in date")

	// ErrNegativeCost indicates a cost below zero
	ErrNegativeCost = errors.New("cost cannot be negative")

	// ErrLatitudeRange indicates a latitude outside [-90, 90]
	ErrLatitudeRange = errors.New("latitude must be between -90 and 90")

	// ErrLongitudeRange indicates a longitude outside [-180, 180]
	ErrLongitudeRange = errors.New("longitude must be between -180 and 180")

	// ErrMissingCoords indicates a city without a map point
	ErrMissingCoords = errors.New("latitude and longitude are required")
)

// MaxNameLength is the longest accepted city name, in runes
const MaxNameLength = 120

const dateLayout = "2006-01-02"

// ItineraryValidator checks user supplied itinerary fields
type ItineraryValidator struct{}

// NewItineraryValidator creates a new itinerary validator instance
func NewItineraryValidator() *ItineraryValidator {
	return &ItineraryValidator{}
}

// Name trims a city name and checks it is usable
func (v *ItineraryValidator) Name(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// Date accepts an empty string (undated) or a zero padded calendar date
func (v *ItineraryValidator) Date(s string) error {
	if s == "" {
		return nil
	}
	if len(s) != len(dateLayout) {
		return ErrInvalidDate
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Stay validates both dates and, when both are set, their order.
// Zero padded ISO dates compare correctly as strings.
func (v *ItineraryValidator) Stay(stayIn, stayOut string) error {
	if err := v.Date(stayIn); err != nil {
		return err
	}
	if err := v.Date(stayOut); err != nil {
		return err
	}
	if stayIn != "" && stayOut != "" && stayOut < stayIn {
		return ErrStayOrder
	}
	return nil
}

// Cost rejects negative amounts
func (v *ItineraryValidator) Cost(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeCost
	}
	return nil
}

// Coords checks a latitude/longitude pair is on the globe
func (v *ItineraryValidator) Coords(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return ErrLatitudeRange
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return ErrLongitudeRange
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
)

var (
	// ErrCityNotFound is returned when a route endpoint or connect origin is unknown
	ErrCityNotFound = errors.New("city not found")

	// ErrRouteNotFound is returned when a route id is unknown
	ErrRouteNotFound = errors.New("route not found")

	// ErrSameCity is returned when a route would start and end at one city
	ErrSameCity = errors.New("route must connect two different cities")

	// ErrNotConnecting is returned when a route is completed without an origin
	ErrNotConnecting = errors.New("connect mode is not active")

	// ErrOperationInProgress is returned when another mutation holds the entity
	ErrOperationInProgress = errors.New("another change to this item is in progress")

	// ErrInvalidCredentials is returned on a bad email or password
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrTokenRevoked is returned when a logged out refresh token is reused
	ErrTokenRevoked = errors.New("refresh token has been revoked")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// StoreError names the store operation that failed. The mirror is left
// untouched whenever one is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

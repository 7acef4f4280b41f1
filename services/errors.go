package services

import "errors"

var (
	// ErrInvalidInput is returned before anything is written: malformed or
	// past slot, non-positive guest count, missing phone number, or a table
	// inventory that would unseat confirmed reservations.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoCapacity means the request was valid but no table is free.
	ErrNoCapacity = errors.New("no table available")
	// ErrNotFound means there is no confirmed reservation to act on.
	ErrNotFound = errors.New("reservation not found")
	// ErrStorage wraps any failure of the underlying database.
	ErrStorage = errors.New("storage failure")
)

// Reason explains why a Book or Change did not go through.
type Reason string

const (
	ReasonNoTable  Reason = "NO_TABLE"
	ReasonNotFound Reason = "NOT_FOUND"
)

func (r Reason) Err() error {
	switch r {
	case ReasonNoTable:
		return ErrNoCapacity
	case ReasonNotFound:
		return ErrNotFound
	}
	return nil
}

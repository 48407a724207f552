package services

import "errors"

var (
	// ErrNotFound is returned when a perfume, rating or edge id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for unusable query parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRating is returned for ratings outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

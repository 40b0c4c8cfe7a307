package domain

import "errors"

var (
	// ErrUnknownCategory is returned when a category has no registered schema
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownAttribute is returned when an attribute is not part of a category schema
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrDuplicateCategory is returned when a category schema is registered twice
	ErrDuplicateCategory = errors.New("category already registered")

	// ErrMissingCredential is returned when the completion service access key is not configured
	ErrMissingCredential = errors.New("completion service access key not configured")

	// ErrTransport is returned when the completion service cannot be reached or answers with a non-2xx status
	ErrTransport = errors.New("completion service request failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidSelection is returned when a user selection is not an allowed value of its attribute
	ErrInvalidSelection = errors.New("invalid compatibility selection")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrAcquisitionInFlight is returned when an entry already has an acquisition running
	ErrAcquisitionInFlight = errors.New("acquisition already in flight for entry")

	// ErrAcquisitionNotFound is returned when an entry has no acquisition
	ErrAcquisitionNotFound = errors.New("no acquisition for entry")
)

package model

import "errors"

// Failure classes surfaced across the ingest and query paths. Callers branch
// with errors.Is; the HTTP layer maps each class to a fixed status code.
var (
	// ErrTransport marks a failed feed fetch. Ingest aborts and the store
	// keeps whatever it held before.
	ErrTransport = errors.New("feed transport failed")

	// ErrMalformedFeed marks a document that could not be parsed as the
	// expected format at all. Handled like ErrTransport.
	ErrMalformedFeed = errors.New("malformed feed document")

	// ErrNotFound marks a requested epoch that is absent from the store.
	ErrNotFound = errors.New("epoch not found")

	// ErrEmptyInput marks a nearest-epoch search over an empty record set.
	ErrEmptyInput = errors.New("empty record set")

	// ErrInvalidEpochFormat marks a timestamp string that does not match the
	// canonical epoch shape.
	ErrInvalidEpochFormat = errors.New("invalid epoch format")

	// ErrDegenerateCoordinate marks the origin position, for which latitude
	// and longitude are undefined.
	ErrDegenerateCoordinate = errors.New("degenerate coordinate")

	// ErrGeocodeFailed marks a reverse-geocode failure. Query paths always
	// downgrade it to the PlaceUnavailable sentinel.
	ErrGeocodeFailed = errors.New("reverse geocode failed")
)

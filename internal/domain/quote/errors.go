package quote

import "errors"

var (
	// ErrUpstreamUnavailable wraps any provider failure: transport, status or decode
	ErrUpstreamUnavailable = errors.New("quote provider unavailable")

	// ErrSymbolNotFound is returned when the provider has no data for a symbol
	ErrSymbolNotFound = errors.New("symbol not found")
)

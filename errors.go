package main

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the NHL API can't be reached or
	// answers with a non-200 status.
	ErrUpstreamUnavailable = errors.New("nhl api unavailable")

	// ErrMalformedResponse is returned when an API payload doesn't decode or is
	// missing fields we depend on.
	ErrMalformedResponse = errors.New("malformed nhl api response")

	// ErrPlayerIneligible means the player has no game log entry on the target
	// date, so there's no team or opponent to attach.
	ErrPlayerIneligible = errors.New("player did not play on date")

	ErrMissingTeamFile   = errors.New("missing team data file")
	ErrMalformedTeamFile = errors.New("malformed team data file")
	ErrInvalidDate       = errors.New("invalid date")
)

// dateFailure reports whether err only invalidates the current date rather than
// the whole run.
func dateFailure(err error) bool {
	return errors.Is(err, ErrMissingTeamFile) || errors.Is(err, ErrMalformedTeamFile)
}

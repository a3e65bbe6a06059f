package automation

import "errors"

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when an automation ID does not exist.
	ErrNotFound = errors.New("automation: not found")

	// ErrExists is returned when creating an automation with an ID that already exists.
	ErrExists = errors.New("automation: already exists")

	// ErrInvalid is returned when automation validation fails.
	ErrInvalid = errors.New("automation: invalid")

	// ErrInvalidSprite is returned when the sprite descriptor is invalid.
	ErrInvalidSprite = errors.New("automation: invalid sprite")

	// ErrInvalidSource is returned when the source variant is invalid
	// (unknown type, missing events, bad schedule, or both variants at once).
	ErrInvalidSource = errors.New("automation: invalid source")

	// ErrInvalidMatch is returned when a match predicate is malformed.
	ErrInvalidMatch = errors.New("automation: invalid match predicate")
)

package models

import "errors"

// Engine error taxonomy. Tip conflicts are deliberately not errors: the event
// is stored and the caller receives a SubmitResult with Applied=false.
var (
	// ErrMalformedEvent marks events rejected before storage: empty or
	// null-containing block set, missing identifiers, broken genesis
	// self-reference.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrChainIntegrity marks events whose declared ancestry cannot be
	// linked: unknown prev, prev from a different stream, or a cyclic
	// reference. The event is never persisted.
	ErrChainIntegrity = errors.New("chain integrity violation")

	// ErrUnknownStream marks non-genesis events whose stream has no row.
	ErrUnknownStream = errors.New("unknown stream")
)

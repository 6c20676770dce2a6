package activity

import "errors"

var (
	// ErrInvalidInput indicates a malformed event or query.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrUnknownEventType indicates an event type outside the known set.
	ErrUnknownEventType = errors.New("unknown event type")
)

package domain

import "errors"

// ErrorKind classifies a domain failure so callers can react without
// inspecting message text.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindOutOfBounds       ErrorKind = "out_of_bounds"
	KindConflict          ErrorKind = "conflict"
	KindInvalid           ErrorKind = "invalid"
)

// Error is a domain error tagged with its kind
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Webinar errors
var (
	ErrWebinarNotFound      = &Error{Kind: KindNotFound, Message: "webinar not found"}
	ErrWebinarNotOrganizer  = &Error{Kind: KindForbidden, Message: "user is not the organizer of the webinar"}
	ErrWebinarReduceSeats   = &Error{Kind: KindInvalidTransition, Message: "webinar seats can only be increased"}
	ErrWebinarTooManySeats  = &Error{Kind: KindOutOfBounds, Message: "webinar must have at most 1000 seats"}
	ErrWebinarAlreadyExists = &Error{Kind: KindConflict, Message: "webinar already exists"}
	ErrVersionConflict      = &Error{Kind: KindConflict, Message: "webinar was modified concurrently"}
	ErrInvalidSeats         = &Error{Kind: KindInvalid, Message: "webinar seats must be between 1 and 1000"}
	ErrInvalidWebinar       = &Error{Kind: KindInvalid, Message: "invalid webinar"}
)

// KindOf returns the kind of the first domain error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsForbiddenError checks if error is an ownership error
func IsForbiddenError(err error) bool {
	return KindOf(err) == KindForbidden
}

// IsInvalidTransitionError checks if error rejects a seat reduction
func IsInvalidTransitionError(err error) bool {
	return KindOf(err) == KindInvalidTransition
}

// IsOutOfBoundsError checks if error rejects a value above the ceiling
func IsOutOfBoundsError(err error) bool {
	return KindOf(err) == KindOutOfBounds
}

// IsConflictError checks if error is a duplicate or concurrent-modification error
func IsConflictError(err error) bool {
	return KindOf(err) == KindConflict
}

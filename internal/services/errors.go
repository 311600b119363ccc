package services

import "errors"

var (
	// ErrNotAllowed means the requester lacks admin authority over the group.
	ErrNotAllowed = errors.New("requester is not a group admin")
	// ErrInvalidOperation means a precondition on the target was violated,
	// e.g. promoting a non-member or demoting the creator.
	ErrInvalidOperation = errors.New("operation not allowed for this target")
	// ErrUserNotFound means the user directory could not resolve the target.
	ErrUserNotFound = errors.New("user not found")
)

package membership

import "errors"

var (
	// ErrValidation is returned when input is rejected before any query runs.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the target entity does not exist or the
	// requester is not allowed to see it. The two cases are deliberately
	// indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when the requester may see the entity but
	// not perform the operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrDuplicateMember is returned when an account is already a member of
	// the household.
	ErrDuplicateMember = errors.New("already a member")

	// ErrLastAdmin is returned when removing a member would leave the
	// household without an admin.
	ErrLastAdmin = errors.New("cannot remove the last admin")
)

package entity

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrAccessDenied    = errors.New("access denied")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrNotApproved     = errors.New("application is not approved yet")
	ErrConflict        = errors.New("concurrent state change")
	ErrInternal        = errors.New("internal error")
)

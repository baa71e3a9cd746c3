package repository

import "context"

// Transactor runs fn as one unit of work. Repositories must be called with the
// context handed to fn so they join the unit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic reports whether a failed unit of work is rolled back by the store.
	Atomic() bool
}

package service

import (
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
)

// internalError classifies a collaborator failure as entity.ErrInternal. The
// cause stays in the chain so store error labels survive.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", entity.ErrInternal, op, err)
}

// notFoundOr maps repository.ErrNotFound to the given domain error and
// anything else to an internal error.
func notFoundOr(err error, domainErr error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", domainErr, what)
	}
	return internalError("load "+what, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		entity.ErrInvalidRequest,
		entity.ErrAccessDenied,
		entity.ErrUnauthenticated,
		entity.ErrNotFound,
		entity.ErrNotApproved,
		entity.ErrConflict,
		entity.ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

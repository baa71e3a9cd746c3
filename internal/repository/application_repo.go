package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
)

type CreateApplicationParams struct {
	ListingID   string
	UserUUID    string
	Description string
	DaysRenting int
}

type UpdateApplicationStatusParams struct {
	ApplicationID string
	// From lists the statuses the application may currently hold; any other
	// status fails the update with ErrOptimisticLock.
	From []entity.ApplicationStatus
	To   entity.ApplicationStatus
	At   time.Time
}

type ApplicationRepository interface {
	Create(ctx context.Context, params CreateApplicationParams) (string, error)
	GetByID(ctx context.Context, applicationID string) (*entity.Application, error)
	ListByListing(ctx context.Context, listingID string) ([]entity.Application, error)
	ListByListings(ctx context.Context, listingIDs []string) ([]entity.Application, error)
	ListByUser(ctx context.Context, userUUID string) ([]entity.Application, error)
	UpdateStatus(ctx context.Context, params UpdateApplicationStatusParams) error
	// RejectOthers rejects every pending or approved application of listingID
	// except keepID and returns the applications it rejected.
	RejectOthers(ctx context.Context, listingID, keepID string) ([]entity.Application, error)
}

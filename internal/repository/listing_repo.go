package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
)

type CreateListingParams struct {
	OwnerUUID   string
	Title       string
	Description string
	ImageURIs   []string
	Price       entity.Price
}

type ListListingsParams struct {
	OwnerUUID  string
	ActiveOnly bool
	Limit      int
}

type ListingRepository interface {
	Create(ctx context.Context, params CreateListingParams) (string, error)
	GetByID(ctx context.Context, listingID string) (*entity.Listing, error)
	List(ctx context.Context, params ListListingsParams) ([]entity.Listing, error)
	// MarkPending holds the listing for applicationID of applicant. It succeeds
	// when the listing is available or already pending for the same application
	// and returns ErrOptimisticLock otherwise.
	MarkPending(ctx context.Context, listingID, applicant, applicationID string) error
	MarkRented(ctx context.Context, listingID, tenant string) error
	AddImage(ctx context.Context, listingID, uri string) error
}

// ListingCache is a read-through cache in front of ListingRepository.GetByID.
type ListingCache interface {
	Get(ctx context.Context, listingID string) (*entity.Listing, error)
	Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error
	Delete(ctx context.Context, listingID string) error
}

// ListingLock serialises approvals per listing across service instances.
type ListingLock interface {
	Acquire(ctx context.Context, listingID string, ttl time.Duration) (release func(context.Context) error, err error)
}

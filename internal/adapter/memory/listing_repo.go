package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/google/uuid"
)

type listingRepository struct {
	s *Store
}

func cloneListing(l entity.Listing) *entity.Listing {
	out := l
	out.ImageURIs = append([]string(nil), l.ImageURIs...)
	if l.CurrentTenantUUID != nil {
		tenant := *l.CurrentTenantUUID
		out.CurrentTenantUUID = &tenant
	}
	return &out
}

func (r *listingRepository) Create(_ context.Context, params repository.CreateListingParams) (string, error) {
	listing, err := entity.NewListing(params.OwnerUUID, params.Title, params.Description, params.ImageURIs, params.Price)
	if err != nil {
		return "", err
	}
	listing.ID = uuid.NewString()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.listings[listing.ID] = *cloneListing(*listing)
	return listing.ID, nil
}

func (r *listingRepository) GetByID(_ context.Context, listingID string) (*entity.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.listings[listingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneListing(l), nil
}

func (r *listingRepository) List(_ context.Context, params repository.ListListingsParams) ([]entity.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.Listing, 0)
	for _, l := range r.s.listings {
		if params.OwnerUUID != "" && l.OwnerUUID != params.OwnerUUID {
			continue
		}
		if params.ActiveOnly && !l.Active {
			continue
		}
		out = append(out, *cloneListing(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *listingRepository) MarkPending(_ context.Context, listingID, applicant, applicationID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[listingID]
	if !ok {
		return repository.ErrNotFound
	}
	if !l.CanApprove(applicationID) {
		return repository.ErrOptimisticLock
	}
	l.MarkPending(applicant, applicationID)
	l.Version++
	r.s.listings[listingID] = l
	return nil
}

func (r *listingRepository) MarkRented(_ context.Context, listingID, tenant string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[listingID]
	if !ok {
		return repository.ErrNotFound
	}
	l.MarkRented(tenant)
	l.Version++
	r.s.listings[listingID] = l
	return nil
}

func (r *listingRepository) AddImage(_ context.Context, listingID, uri string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[listingID]
	if !ok {
		return repository.ErrNotFound
	}
	l.ImageURIs = append(append([]string(nil), l.ImageURIs...), uri)
	l.UpdatedAt = time.Now().UTC()
	l.Version++
	r.s.listings[listingID] = l
	return nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/google/uuid"
)

type applicationRepository struct {
	s *Store
}

func (r *applicationRepository) Create(_ context.Context, params repository.CreateApplicationParams) (string, error) {
	now := time.Now().UTC()
	app := entity.Application{
		ID:          uuid.NewString(),
		ListingID:   params.ListingID,
		UserUUID:    params.UserUUID,
		Description: params.Description,
		DaysRenting: params.DaysRenting,
		Status:      entity.ApplicationStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.applications[app.ID] = app
	return app.ID, nil
}

func (r *applicationRepository) GetByID(_ context.Context, applicationID string) (*entity.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	app, ok := r.s.applications[applicationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &app, nil
}

func (r *applicationRepository) ListByListing(_ context.Context, listingID string) ([]entity.Application, error) {
	return r.filter(func(a entity.Application) bool { return a.ListingID == listingID }), nil
}

func (r *applicationRepository) ListByListings(_ context.Context, listingIDs []string) ([]entity.Application, error) {
	wanted := make(map[string]struct{}, len(listingIDs))
	for _, id := range listingIDs {
		wanted[id] = struct{}{}
	}
	return r.filter(func(a entity.Application) bool {
		_, ok := wanted[a.ListingID]
		return ok
	}), nil
}

func (r *applicationRepository) ListByUser(_ context.Context, userUUID string) ([]entity.Application, error) {
	return r.filter(func(a entity.Application) bool { return a.UserUUID == userUUID }), nil
}

func (r *applicationRepository) UpdateStatus(_ context.Context, params repository.UpdateApplicationStatusParams) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[params.ApplicationID]
	if !ok {
		return repository.ErrNotFound
	}
	if len(params.From) > 0 && !statusIn(app.Status, params.From) {
		return repository.ErrOptimisticLock
	}
	at := params.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	switch params.To {
	case entity.ApplicationStatusConfirmed:
		app.ConfirmedAt = &at
	case entity.ApplicationStatusPaid:
		app.PaidAt = &at
	}
	app.Status = params.To
	app.UpdatedAt = at
	r.s.applications[app.ID] = app
	return nil
}

func (r *applicationRepository) RejectOthers(_ context.Context, listingID, keepID string) ([]entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rejected := make([]entity.Application, 0)
	for id, app := range r.s.applications {
		if app.ListingID != listingID || id == keepID || !app.CanTransitionTo(entity.ApplicationStatusRejected) {
			continue
		}
		if err := app.UpdateStatus(entity.ApplicationStatusRejected); err != nil {
			return nil, err
		}
		r.s.applications[id] = app
		rejected = append(rejected, app)
	}
	sortApplications(rejected)
	return rejected, nil
}

func (r *applicationRepository) filter(keep func(entity.Application) bool) []entity.Application {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Application, 0)
	for _, app := range r.s.applications {
		if keep(app) {
			out = append(out, app)
		}
	}
	sortApplications(out)
	return out
}

func sortApplications(apps []entity.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
}

func statusIn(s entity.ApplicationStatus, set []entity.ApplicationStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
)

// Profile is everything the caller's dashboard shows.
type Profile struct {
	User         *entity.User         `json:"user"`
	Listings     []entity.Listing     `json:"listings"`
	Applications []entity.Application `json:"applications"`
	// Requests are applications other users made on the caller's listings.
	Requests []entity.Application `json:"requests"`
}

type UserService interface {
	Me(ctx context.Context, userUUID string) (*Profile, error)
}

type userService struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	appRepo     repository.ApplicationRepository
	log         logger.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	appRepo repository.ApplicationRepository,
	log logger.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		appRepo:     appRepo,
		log:         log,
	}
}

func (s *userService) Me(ctx context.Context, userUUID string) (*Profile, error) {
	profile := &Profile{}

	user, err := s.userRepo.GetByID(ctx, userUUID)
	switch {
	case err == nil:
		profile.User = user
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.log.Errorf("Failed to load user %s: %v", userUUID, err)
		return nil, internalError("load user", err)
	}

	listings, err := s.listingRepo.List(ctx, repository.ListListingsParams{OwnerUUID: userUUID})
	if err != nil {
		return nil, internalError("list owned listings", err)
	}
	profile.Listings = listings

	applications, err := s.appRepo.ListByUser(ctx, userUUID)
	if err != nil {
		return nil, internalError("list applications", err)
	}
	profile.Applications = applications

	listingIDs := make([]string, 0, len(listings))
	for _, l := range listings {
		listingIDs = append(listingIDs, l.ID)
	}
	requests, err := s.appRepo.ListByListings(ctx, listingIDs)
	if err != nil {
		return nil, internalError("list received applications", err)
	}
	profile.Requests = requests

	return profile, nil
}

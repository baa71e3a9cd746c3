package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
)

const (
	defaultListingCacheTTL = 5 * time.Minute
	maxListLimit           = 100
)

type CreateListingInput struct {
	Title       string
	Description string
	ImageURIs   []string
	Price       entity.Price
}

type ListListingsInput struct {
	OwnerUUID string
	// IncludeInactive also returns rented or hidden listings.
	IncludeInactive bool
	Limit           int
}

type PhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type ListingService interface {
	CreateListing(ctx context.Context, ownerUUID string, input CreateListingInput) (*entity.Listing, error)
	GetListing(ctx context.Context, listingID string) (*entity.Listing, error)
	ListListings(ctx context.Context, input ListListingsInput) ([]entity.Listing, error)
	UploadPhoto(ctx context.Context, listingID, callerUUID string, photo PhotoUpload) (string, error)
	ListApplications(ctx context.Context, listingID, callerUUID string) ([]entity.Application, error)
}

type listingService struct {
	listingRepo repository.ListingRepository
	appRepo     repository.ApplicationRepository
	cache       repository.ListingCache
	photos      s3.PhotoStorage
	cacheTTL    time.Duration
	log         logger.Logger
}

// NewListingService wires listing reads and writes. cache and photos may be nil.
func NewListingService(
	listingRepo repository.ListingRepository,
	appRepo repository.ApplicationRepository,
	cache repository.ListingCache,
	photos s3.PhotoStorage,
	cacheTTL time.Duration,
	log logger.Logger,
) ListingService {
	if cacheTTL <= 0 {
		cacheTTL = defaultListingCacheTTL
	}
	return &listingService{
		listingRepo: listingRepo,
		appRepo:     appRepo,
		cache:       cache,
		photos:      photos,
		cacheTTL:    cacheTTL,
		log:         log,
	}
}

func (s *listingService) CreateListing(ctx context.Context, ownerUUID string, input CreateListingInput) (*entity.Listing, error) {
	if _, err := entity.NewListing(ownerUUID, input.Title, input.Description, input.ImageURIs, input.Price); err != nil {
		return nil, err
	}

	listingID, err := s.listingRepo.Create(ctx, repository.CreateListingParams{
		OwnerUUID:   ownerUUID,
		Title:       input.Title,
		Description: input.Description,
		ImageURIs:   input.ImageURIs,
		Price:       input.Price,
	})
	if err != nil {
		s.log.Errorf("Failed to create listing for owner %s: %v", ownerUUID, err)
		return nil, internalError("create listing", err)
	}
	s.log.Infof("Listing %s created by owner %s", listingID, ownerUUID)

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, internalError("load created listing", err)
	}
	return listing, nil
}

func (s *listingService) GetListing(ctx context.Context, listingID string) (*entity.Listing, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, listingID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warnf("Listing cache read for %s failed: %v", listingID, err)
		}
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, notFoundOr(err, entity.ErrNotFound, "listing "+listingID)
	}

	if s.cache != nil {
		s.fillCache(ctx, listing)
	}
	return listing, nil
}

// fillCache stores a freshly loaded listing and drops it again if the stored
// version moved on while it was being written.
func (s *listingService) fillCache(ctx context.Context, listing *entity.Listing) {
	if err := s.cache.Set(ctx, listing, s.cacheTTL); err != nil {
		s.log.Warnf("Failed to cache listing %s: %v", listing.ID, err)
		return
	}
	current, err := s.listingRepo.GetByID(ctx, listing.ID)
	if err == nil && current.Version == listing.Version {
		return
	}
	if err := s.cache.Delete(ctx, listing.ID); err != nil {
		s.log.Warnf("Failed to drop stale cached listing %s: %v", listing.ID, err)
	}
}

func (s *listingService) ListListings(ctx context.Context, input ListListingsInput) ([]entity.Listing, error) {
	limit := input.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	listings, err := s.listingRepo.List(ctx, repository.ListListingsParams{
		OwnerUUID:  input.OwnerUUID,
		ActiveOnly: !input.IncludeInactive,
		Limit:      limit,
	})
	if err != nil {
		s.log.Errorf("Failed to list listings: %v", err)
		return nil, internalError("list listings", err)
	}
	return listings, nil
}

func (s *listingService) UploadPhoto(ctx context.Context, listingID, callerUUID string, photo PhotoUpload) (string, error) {
	if s.photos == nil {
		return "", fmt.Errorf("%w: photo storage is not configured", entity.ErrInternal)
	}
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return "", notFoundOr(err, entity.ErrNotFound, "listing "+listingID)
	}
	if !listing.IsOwnedBy(callerUUID) {
		return "", fmt.Errorf("%w: only the listing owner may upload photos", entity.ErrAccessDenied)
	}
	if len(photo.Data) == 0 {
		return "", fmt.Errorf("%w: photo is empty", entity.ErrInvalidRequest)
	}
	contentType := photo.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(photo.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: photo must be an image, got %s", entity.ErrInvalidRequest, contentType)
	}

	photoURL, err := s.photos.UploadListingPhoto(ctx, listingID, photo.FileName, contentType, photo.Data)
	if err != nil {
		s.log.Errorf("Failed to upload photo for listing %s: %v", listingID, err)
		return "", internalError("upload photo", err)
	}
	if err := s.listingRepo.AddImage(ctx, listingID, photoURL); err != nil {
		return "", internalError("attach photo", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, listingID); err != nil {
			s.log.Warnf("Failed to invalidate cached listing %s: %v", listingID, err)
		}
	}
	return photoURL, nil
}

func (s *listingService) ListApplications(ctx context.Context, listingID, callerUUID string) ([]entity.Application, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, notFoundOr(err, entity.ErrNotFound, "listing "+listingID)
	}
	if !listing.IsOwnedBy(callerUUID) {
		return nil, fmt.Errorf("%w: only the listing owner may view its applications", entity.ErrAccessDenied)
	}
	apps, err := s.appRepo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, internalError("list applications", err)
	}
	return apps, nil
}

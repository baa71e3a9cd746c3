package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type listingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) repository.ListingRepository {
	return &listingRepository{collection: db.Collection(listingsCollectionName)}
}

func (r *listingRepository) Create(ctx context.Context, params repository.CreateListingParams) (string, error) {
	listing, err := entity.NewListing(params.OwnerUUID, params.Title, params.Description, params.ImageURIs, params.Price)
	if err != nil {
		return "", err
	}
	listing.ID = uuid.NewString()

	if _, err := r.collection.InsertOne(ctx, listing); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return listing.ID, nil
}

func (r *listingRepository) GetByID(ctx context.Context, listingID string) (*entity.Listing, error) {
	var listing entity.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, params repository.ListListingsParams) ([]entity.Listing, error) {
	filter := bson.M{}
	if params.OwnerUUID != "" {
		filter["owner_uuid"] = params.OwnerUUID
	}
	if params.ActiveOnly {
		filter["active"] = true
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if params.Limit > 0 {
		findOpts.SetLimit(int64(params.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := make([]entity.Listing, 0)
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) MarkPending(ctx context.Context, listingID, applicant, applicationID string) error {
	filter := bson.M{
		"_id": listingID,
		"$or": bson.A{
			bson.M{"status": entity.ListingStatusAvailable},
			bson.M{"status": entity.ListingStatusPending, "held_application_id": applicationID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"status":              entity.ListingStatusPending,
			"current_tenant_uuid": applicant,
			"held_application_id": applicationID,
			"updated_at":          time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	return r.conditionalUpdate(ctx, listingID, filter, update)
}

func (r *listingRepository) MarkRented(ctx context.Context, listingID, tenant string) error {
	filter := bson.M{"_id": listingID}
	update := bson.M{
		"$set": bson.M{
			"status":              entity.ListingStatusRented,
			"active":              false,
			"current_tenant_uuid": tenant,
			"updated_at":          time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	return r.conditionalUpdate(ctx, listingID, filter, update)
}

func (r *listingRepository) AddImage(ctx context.Context, listingID, uri string) error {
	update := bson.M{
		"$push": bson.M{"image_uris": uri},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": listingID}, update)
	if err != nil {
		return fmt.Errorf("failed to add image to listing %s: %w", listingID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *listingRepository) conditionalUpdate(ctx context.Context, listingID string, filter, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", listingID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": listingID})
	if err != nil {
		return fmt.Errorf("failed to check listing %s: %w", listingID, err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrOptimisticLock
}

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

type applicationRepository struct {
	collection *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) repository.ApplicationRepository {
	return &applicationRepository{collection: db.Collection(applicationsCollectionName)}
}

func (r *applicationRepository) Create(ctx context.Context, params repository.CreateApplicationParams) (string, error) {
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
	if _, err := r.collection.InsertOne(ctx, app); err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}
	return app.ID, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, applicationID string) (*entity.Application, error) {
	var app entity.Application
	err := r.collection.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application by ID %s: %w", applicationID, err)
	}
	return &app, nil
}

func (r *applicationRepository) ListByListing(ctx context.Context, listingID string) ([]entity.Application, error) {
	return r.find(ctx, bson.M{"listing_id": listingID})
}

func (r *applicationRepository) ListByListings(ctx context.Context, listingIDs []string) ([]entity.Application, error) {
	if len(listingIDs) == 0 {
		return []entity.Application{}, nil
	}
	return r.find(ctx, bson.M{"listing_id": bson.M{"$in": listingIDs}})
}

func (r *applicationRepository) ListByUser(ctx context.Context, userUUID string) ([]entity.Application, error) {
	return r.find(ctx, bson.M{"user_uuid": userUUID})
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, params repository.UpdateApplicationStatusParams) error {
	at := params.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	set := bson.M{
		"status":     params.To,
		"updated_at": at,
	}
	switch params.To {
	case entity.ApplicationStatusConfirmed:
		set["confirmed_at"] = at
	case entity.ApplicationStatusPaid:
		set["paid_at"] = at
	}

	filter := bson.M{"_id": params.ApplicationID}
	if len(params.From) > 0 {
		filter["status"] = bson.M{"$in": params.From}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update application status for ID %s: %w", params.ApplicationID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": params.ApplicationID})
	if err != nil {
		return fmt.Errorf("failed to check application %s: %w", params.ApplicationID, err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrOptimisticLock
}

func (r *applicationRepository) RejectOthers(ctx context.Context, listingID, keepID string) ([]entity.Application, error) {
	rejectable := entity.StatusesLeadingTo(entity.ApplicationStatusRejected)
	filter := bson.M{
		"listing_id": listingID,
		"_id":        bson.M{"$ne": keepID},
		"status":     bson.M{"$in": rejectable},
	}
	competitors, err := r.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(competitors) == 0 {
		return competitors, nil
	}

	ids := make([]string, 0, len(competitors))
	for _, a := range competitors {
		ids = append(ids, a.ID)
	}
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":     entity.ApplicationStatusRejected,
		"updated_at": now,
	}}
	_, err = r.collection.UpdateMany(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"status": bson.M{"$in": rejectable},
	}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to reject competing applications for listing %s: %w", listingID, err)
	}

	for i := range competitors {
		competitors[i].Status = entity.ApplicationStatusRejected
		competitors[i].UpdatedAt = now
	}
	return competitors, nil
}

func (r *applicationRepository) find(ctx context.Context, filter bson.M) ([]entity.Application, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find applications: %w", err)
	}
	defer cursor.Close(ctx)

	apps := make([]entity.Application, 0)
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type secureTokenRepository struct {
	collection *mongo.Collection
}

func NewSecureTokenRepository(db *mongo.Database) repository.SecureTokenRepository {
	return &secureTokenRepository{collection: db.Collection(secureStringsCollectionName)}
}

func (r *secureTokenRepository) Create(ctx context.Context, token *entity.SecureToken) error {
	if _, err := r.collection.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to store secure token: %w", err)
	}
	return nil
}

// Claim relies on FindOneAndDelete being atomic for a single document: of two
// concurrent callers at most one receives the document.
func (r *secureTokenRepository) Claim(ctx context.Context, token string, match entity.TokenMatch) (*entity.SecureToken, error) {
	filter := bson.M{
		"_id":            token,
		"listing_id":     match.ListingID,
		"application_id": match.ApplicationID,
	}
	if match.ApplicantUUID != "" {
		filter["applicant_uuid"] = match.ApplicantUUID
	}

	var claimed entity.SecureToken
	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&claimed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim secure token: %w", err)
	}
	return &claimed, nil
}

func (r *secureTokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("failed to delete secure token: %w", err)
	}
	return nil
}

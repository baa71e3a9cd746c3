package mongo

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultNotificationLimit = 50

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &notificationRepository{collection: db.Collection(notificationsCollectionName)}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}
	return n.ID, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUUID string, limit int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"user_uuid": userUUID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]entity.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userUUID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"_id":       bson.M{"$in": ids},
		"user_uuid": userUUID,
	}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.MatchedCount, nil
}

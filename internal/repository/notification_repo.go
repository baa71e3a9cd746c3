package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) (string, error)
	// ListByUser returns the user's notifications newest first.
	ListByUser(ctx context.Context, userUUID string, limit int) ([]entity.Notification, error)
	// MarkRead flips read on the ids owned by userUUID and reports how many matched.
	MarkRead(ctx context.Context, userUUID string, ids []string) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*entity.User, error)
}

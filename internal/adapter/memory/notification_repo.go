package memory

import (
	"context"
	"sort"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) Create(_ context.Context, n *entity.Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID] = *n
	return n.ID, nil
}

func (r *notificationRepository) ListByUser(_ context.Context, userUUID string, limit int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Notification, 0)
	for _, n := range r.s.notifications {
		if n.UserUUID == userUUID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, userUUID string, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched int64
	for _, id := range ids {
		n, ok := r.s.notifications[id]
		if !ok || n.UserUUID != userUUID {
			continue
		}
		n.Read = true
		r.s.notifications[id] = n
		matched++
	}
	return matched, nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) GetByID(_ context.Context, userID string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

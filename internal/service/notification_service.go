package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/email"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
)

const (
	emailSendTimeout   = 10 * time.Second
	maxMarkReadIDs     = 500
	notificationsLimit = 50
)

// Outbox collects notifications during an operation. It is flushed with
// NotificationService.Dispatch once the operation's state change has been
// committed, so a notification never describes a change that did not happen.
type Outbox struct {
	pending []*entity.Notification
}

func (o *Outbox) Add(userUUID string, typ entity.NotificationType, listingID, applicationID string, nc entity.NotificationContext) {
	if userUUID == "" {
		return
	}
	o.pending = append(o.pending, entity.NewNotification(userUUID, typ, listingID, applicationID, nc))
}

func (o *Outbox) Len() int {
	return len(o.pending)
}

type NotificationService interface {
	// Dispatch delivers every queued notification. Delivery is best-effort:
	// failures are logged and counted, never returned.
	Dispatch(ctx context.Context, outbox *Outbox)
	List(ctx context.Context, userUUID string) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userUUID string, ids []string) (int64, error)
}

type notificationService struct {
	notifRepo    repository.NotificationRepository
	userRepo     repository.UserRepository
	msgPublisher nats.MessagePublisher
	mailer       email.Sender
	metrics      *metrics.Manager
	log          logger.Logger
}

// NewNotificationService wires the notification sink. mailer may be nil when
// SMTP is disabled.
func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	msgPublisher nats.MessagePublisher,
	mailer email.Sender,
	metricsManager *metrics.Manager,
	log logger.Logger,
) NotificationService {
	return &notificationService{
		notifRepo:    notifRepo,
		userRepo:     userRepo,
		msgPublisher: msgPublisher,
		mailer:       mailer,
		metrics:      metricsManager,
		log:          log,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, outbox *Outbox) {
	if outbox == nil || outbox.Len() == 0 {
		return
	}
	s.log.Debugf("Dispatching %d notifications", outbox.Len())
	// The request may already be cancelled by the time side effects run.
	ctx = context.WithoutCancel(ctx)

	for _, n := range outbox.pending {
		if _, err := s.notifRepo.Create(ctx, n); err != nil {
			s.fail("store", err, n)
			continue
		}
		if err := s.msgPublisher.Publish(ctx, natsSubjectNotificationCreated, n); err != nil {
			s.fail("nats", err, n)
		}
		if s.mailer != nil {
			s.sendEmail(ctx, n)
		}
	}
	outbox.pending = nil
}

func (s *notificationService) sendEmail(ctx context.Context, n *entity.Notification) {
	user, err := s.userRepo.GetByID(ctx, n.UserUUID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.fail("email", err, n)
		}
		return
	}
	if user.Email == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, emailSendTimeout)
	defer cancel()
	if err := s.mailer.SendNotification(sendCtx, user.Email, n); err != nil {
		s.fail("email", err, n)
	}
}

func (s *notificationService) fail(channel string, err error, n *entity.Notification) {
	s.log.Warnf("Notification %s for user %s via %s failed: %v", n.Type, n.UserUUID, channel, err)
	if s.metrics != nil {
		s.metrics.NotificationFailures.WithLabelValues(channel).Inc()
	}
}

func (s *notificationService) List(ctx context.Context, userUUID string) ([]entity.Notification, error) {
	notifications, err := s.notifRepo.ListByUser(ctx, userUUID, notificationsLimit)
	if err != nil {
		s.log.Errorf("Failed to list notifications for user %s: %v", userUUID, err)
		return nil, internalError("list notifications", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userUUID string, ids []string) (int64, error) {
	cleaned := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return 0, fmt.Errorf("%w: notificationIds must be a non-empty list", entity.ErrInvalidRequest)
	}
	if len(cleaned) > maxMarkReadIDs {
		return 0, fmt.Errorf("%w: at most %d notificationIds per request", entity.ErrInvalidRequest, maxMarkReadIDs)
	}

	matched, err := s.notifRepo.MarkRead(ctx, userUUID, cleaned)
	if err != nil {
		s.log.Errorf("Failed to mark notifications read for user %s: %v", userUUID, err)
		return 0, internalError("mark notifications read", err)
	}
	return matched, nil
}

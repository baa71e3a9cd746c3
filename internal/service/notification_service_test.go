package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOutbox_SkipsEmptyRecipient(t *testing.T) {
	o := &Outbox{}
	o.Add("", entity.NotificationApplicationApproved, "l", "a", entity.NotificationContext{})
	o.Add(renterX, entity.NotificationApplicationApproved, "l", "a", entity.NotificationContext{})
	assert.Equal(t, 1, o.Len())
}

func TestNotificationService_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("stores, publishes and emails", func(t *testing.T) {
		store := memory.NewStore()
		store.PutUser(entity.User{ID: renterX, Email: "x@example.com", Name: "X"})
		publisher := new(MockMessagePublisher)
		mailer := new(MockMailer)
		m := metrics.NewManager("test")
		svc := NewNotificationService(store.Notifications(), store.Users(), publisher, mailer, m, logger.NewNop())

		publisher.On("Publish", mock.Anything, natsSubjectNotificationCreated, mock.AnythingOfType("*entity.Notification")).Return(nil).Twice()
		mailer.On("SendNotification", mock.Anything, "x@example.com", mock.AnythingOfType("*entity.Notification")).Return(nil).Once()

		o := &Outbox{}
		o.Add(renterX, entity.NotificationApplicationApproved, "l1", "a1", entity.NotificationContext{ListingTitle: "Kayak"})
		// renterY has no profile, so no email.
		o.Add(renterY, entity.NotificationApplicationRejected, "l1", "a2", entity.NotificationContext{ListingTitle: "Kayak"})
		svc.Dispatch(ctx, o)

		assert.Zero(t, o.Len())
		x, err := svc.List(ctx, renterX)
		require.NoError(t, err)
		require.Len(t, x, 1)
		assert.Equal(t, "Application Approved!", x[0].Title)
		assert.False(t, x[0].Read)

		publisher.AssertExpectations(t)
		mailer.AssertExpectations(t)
		assert.Zero(t, testutil.ToFloat64(m.NotificationFailures.WithLabelValues("email")))
	})

	t.Run("empty outbox touches no channel", func(t *testing.T) {
		store := memory.NewStore()
		publisher := new(MockMessagePublisher)
		mailer := new(MockMailer)
		svc := NewNotificationService(store.Notifications(), store.Users(), publisher, mailer, nil, logger.NewNop())

		svc.Dispatch(ctx, &Outbox{})
		svc.Dispatch(ctx, nil)

		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		mailer.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delivery failures are counted, not returned", func(t *testing.T) {
		store := memory.NewStore()
		store.PutUser(entity.User{ID: renterX, Email: "x@example.com"})
		publisher := new(MockMessagePublisher)
		mailer := new(MockMailer)
		m := metrics.NewManager("test")
		svc := NewNotificationService(store.Notifications(), store.Users(), publisher, mailer, m, logger.NewNop())

		publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats down"))
		mailer.On("SendNotification", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		o := &Outbox{}
		o.Add(renterX, entity.NotificationPaymentCompleted, "l1", "a1", entity.NotificationContext{})
		svc.Dispatch(ctx, o)

		stored, err := svc.List(ctx, renterX)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues("nats")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues("email")))
	})

	t.Run("cancelled request still delivers", func(t *testing.T) {
		store := memory.NewStore()
		publisher := new(MockMessagePublisher)
		publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		svc := NewNotificationService(store.Notifications(), store.Users(), publisher, nil, nil, logger.NewNop())

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		o := &Outbox{}
		o.Add(renterX, entity.NotificationReceiptConfirmed, "l1", "a1", entity.NotificationContext{})
		svc.Dispatch(cancelled, o)

		stored, err := svc.List(ctx, renterX)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	publisher := new(MockMessagePublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := NewNotificationService(store.Notifications(), store.Users(), publisher, nil, nil, logger.NewNop())

	o := &Outbox{}
	o.Add(renterX, entity.NotificationApplicationApproved, "l1", "a1", entity.NotificationContext{})
	o.Add(renterY, entity.NotificationApplicationRejected, "l1", "a2", entity.NotificationContext{})
	svc.Dispatch(ctx, o)

	mine, err := svc.List(ctx, renterX)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	theirs, err := svc.List(ctx, renterY)
	require.NoError(t, err)
	require.Len(t, theirs, 1)

	matched, err := svc.MarkRead(ctx, renterX, []string{mine[0].ID, mine[0].ID, theirs[0].ID, ""})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	mine, err = svc.List(ctx, renterX)
	require.NoError(t, err)
	assert.True(t, mine[0].Read)
	theirs, err = svc.List(ctx, renterY)
	require.NoError(t, err)
	assert.False(t, theirs[0].Read)

	_, err = svc.MarkRead(ctx, renterX, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
	_, err = svc.MarkRead(ctx, renterX, []string{""})
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

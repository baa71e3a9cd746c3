package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/payment"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockWebhookVerifier struct {
	mock.Mock
}

func (m *MockWebhookVerifier) VerifyWebhook(payload []byte, signature string) (*payment.CompletionEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CompletionEvent), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}

func (m *MockMessagePublisher) PublishRaw(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Get(ctx context.Context, listingID string) (*entity.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingCache) Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error {
	args := m.Called(ctx, listing, ttl)
	return args.Error(0)
}

func (m *MockListingCache) Delete(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

type MockListingLock struct {
	mock.Mock
}

func (m *MockListingLock) Acquire(ctx context.Context, listingID string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, listingID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendNotification(ctx context.Context, to string, n *entity.Notification) error {
	args := m.Called(ctx, to, n)
	return args.Error(0)
}

type MockPhotoStorage struct {
	mock.Mock
}

func (m *MockPhotoStorage) UploadListingPhoto(ctx context.Context, listingID, fileName, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, listingID, fileName, contentType, data)
	return args.String(0), args.Error(1)
}

// flakyApplications fails UpdateStatus for the configured target status once.
type flakyApplications struct {
	repository.ApplicationRepository
	mu       sync.Mutex
	failOnce map[entity.ApplicationStatus]error
}

func (f *flakyApplications) UpdateStatus(ctx context.Context, params repository.UpdateApplicationStatusParams) error {
	f.mu.Lock()
	err, ok := f.failOnce[params.To]
	if ok {
		delete(f.failOnce, params.To)
	}
	f.mu.Unlock()
	if ok {
		return err
	}
	return f.ApplicationRepository.UpdateStatus(ctx, params)
}

// interleavedApplications runs beforeCreate once, between a submission's
// availability check and its insert.
type interleavedApplications struct {
	repository.ApplicationRepository
	once         sync.Once
	beforeCreate func()
}

func (r *interleavedApplications) Create(ctx context.Context, params repository.CreateApplicationParams) (string, error) {
	if r.beforeCreate != nil {
		r.once.Do(r.beforeCreate)
	}
	return r.ApplicationRepository.Create(ctx, params)
}

const (
	ownerID = "owner-1"
	renterX = "renter-x"
	renterY = "renter-y"
	renterZ = "renter-z"

	testPaymentLink = "https://pay.test/plink_1"
)

type rentalFixture struct {
	store         *memory.Store
	apps          repository.ApplicationRepository
	payments      *MockPaymentProvider
	webhooks      *MockWebhookVerifier
	publisher     *MockMessagePublisher
	metrics       *metrics.Manager
	notifications NotificationService
	svc           RentalService
}

func newRentalFixture(t *testing.T) *rentalFixture {
	t.Helper()
	return newRentalFixtureWith(t, nil, nil)
}

// newRentalFixtureWith lets a test wrap the application repository and plug
// in an approval lock. Either may be nil.
func newRentalFixtureWith(
	t *testing.T,
	wrapApps func(repository.ApplicationRepository) repository.ApplicationRepository,
	lock repository.ListingLock,
) *rentalFixture {
	t.Helper()
	store := memory.NewStore()
	apps := store.Applications()
	if wrapApps != nil {
		apps = wrapApps(apps)
	}
	f := &rentalFixture{
		store:     store,
		apps:      apps,
		payments:  new(MockPaymentProvider),
		webhooks:  new(MockWebhookVerifier),
		publisher: new(MockMessagePublisher),
		metrics:   metrics.NewManager("test"),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.payments.On("CreatePaymentLink", mock.Anything, mock.Anything).Return(testPaymentLink, nil).Maybe()

	log := logger.NewNop()
	f.notifications = NewNotificationService(store.Notifications(), store.Users(), f.publisher, nil, f.metrics, log)
	deps := RentalServiceDeps{
		Listings:      store.Listings(),
		Applications:  apps,
		Tokens:        store.SecureTokens(),
		Transactor:    store.Transactor(),
		Payments:      f.payments,
		Webhooks:      f.webhooks,
		Notifications: f.notifications,
		Publisher:     f.publisher,
		Metrics:       f.metrics,
		Log:           log,
	}
	if lock != nil {
		deps.ListingLock = lock
	}
	f.svc = NewRentalService(deps, RentalConfig{PublicBaseURL: "https://rent.test/", Currency: "usd"})
	return f
}

func (f *rentalFixture) createListing(t *testing.T, owner string) string {
	t.Helper()
	id, err := f.store.Listings().Create(context.Background(), repository.CreateListingParams{
		OwnerUUID:   owner,
		Title:       "Cordless Drill",
		Description: "18V with two batteries",
		Price:       entity.Price{Amount: 5000, Unit: entity.PriceUnitDay},
	})
	require.NoError(t, err)
	return id
}

func (f *rentalFixture) submit(t *testing.T, listingID, applicant string, days float64) string {
	t.Helper()
	id, err := f.svc.SubmitApplication(context.Background(), listingID, applicant, SubmitApplicationInput{
		Description: "need it for a move",
		DaysRenting: days,
	})
	require.NoError(t, err)
	return id
}

func (f *rentalFixture) listing(t *testing.T, id string) *entity.Listing {
	t.Helper()
	l, err := f.store.Listings().GetByID(context.Background(), id)
	require.NoError(t, err)
	return l
}

func (f *rentalFixture) application(t *testing.T, id string) *entity.Application {
	t.Helper()
	a, err := f.store.Applications().GetByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (f *rentalFixture) notificationsFor(t *testing.T, user string, typ entity.NotificationType) []entity.Notification {
	t.Helper()
	all, err := f.store.Notifications().ListByUser(context.Background(), user, 0)
	require.NoError(t, err)
	out := make([]entity.Notification, 0)
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// confirmed drives a fresh application through approval and receipt
// confirmation and returns the token minted for it.
func (f *rentalFixture) confirmed(t *testing.T) (listingID, applicationID, token string) {
	t.Helper()
	ctx := context.Background()
	listingID = f.createListing(t, ownerID)
	applicationID = f.submit(t, listingID, renterX, 3)

	_, err := f.svc.ApproveApplication(ctx, listingID, applicationID, ownerID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmReceipt(ctx, applicationID, renterX)
	require.NoError(t, err)

	token = f.lastToken(t)
	return listingID, applicationID, token
}

// lastToken extracts the token from the most recent payment link request.
func (f *rentalFixture) lastToken(t *testing.T) string {
	t.Helper()
	var req payment.LinkRequest
	for _, call := range f.payments.Calls {
		if call.Method == "CreatePaymentLink" {
			req = call.Arguments.Get(1).(payment.LinkRequest)
		}
	}
	token := req.Metadata[payment.MetadataToken]
	require.NotEmpty(t, token)
	return token
}

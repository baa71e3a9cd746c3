package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/auth"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/payment"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	ownerID    = "owner-1"
	renterID   = "renter-1"
	otherID    = "renter-2"
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

type MockPhotoStorage struct {
	mock.Mock
}

func (m *MockPhotoStorage) UploadListingPhoto(ctx context.Context, listingID, fileName, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, listingID, fileName, contentType, data)
	return args.String(0), args.Error(1)
}

type testServer struct {
	store    *memory.Store
	payments *MockPaymentProvider
	webhooks *MockWebhookVerifier
	photos   *MockPhotoStorage
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()
	m := metrics.NewManager("test")
	store := memory.NewStore()
	ts := &testServer{
		store:    store,
		payments: new(MockPaymentProvider),
		webhooks: new(MockWebhookVerifier),
		photos:   new(MockPhotoStorage),
	}
	ts.payments.On("CreatePaymentLink", mock.Anything, mock.Anything).Return("https://pay.test/plink_1", nil).Maybe()

	publisher := nats.NewNoopPublisher()
	notifications := service.NewNotificationService(store.Notifications(), store.Users(), publisher, nil, m, log)
	rental := service.NewRentalService(service.RentalServiceDeps{
		Listings:      store.Listings(),
		Applications:  store.Applications(),
		Tokens:        store.SecureTokens(),
		Transactor:    store.Transactor(),
		Payments:      ts.payments,
		Webhooks:      ts.webhooks,
		Notifications: notifications,
		Publisher:     publisher,
		Metrics:       m,
		Log:           log,
	}, service.RentalConfig{PublicBaseURL: "https://rent.test"})
	listings := service.NewListingService(store.Listings(), store.Applications(), nil, ts.photos, 0, log)
	users := service.NewUserService(store.Users(), store.Listings(), store.Applications(), log)

	h := NewHandler(rental, listings, users, notifications, log, HandlerConfig{})
	ts.handler = NewRouter(h, auth.NewJWTVerifier(testSecret, ""), m, log)
	return ts
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, subject string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, subject))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func (ts *testServer) createListing(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/listings", ownerID, map[string]interface{}{
		"title":       "Cordless Drill",
		"description": "18V with two batteries",
		"price":       map[string]interface{}{"amount": 5000, "unit": "day"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var listing entity.Listing
	decodeBody(t, rec, &listing)
	return listing.ID
}

func (ts *testServer) submit(t *testing.T, listingID, subject string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/applications", subject, map[string]interface{}{
		"description":  "need it for a move",
		"days_renting": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out map[string]string
	decodeBody(t, rec, &out)
	return out["id"]
}

func (ts *testServer) lastToken(t *testing.T) string {
	t.Helper()
	var req payment.LinkRequest
	for _, call := range ts.payments.Calls {
		req = call.Arguments.Get(1).(payment.LinkRequest)
	}
	return req.Metadata[payment.MetadataToken]
}

func TestRouter_RentalFlowOverRedirect(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t)
	appID := ts.submit(t, listingID, renterID)
	rival := ts.submit(t, listingID, otherID)

	rec := ts.do(t, http.MethodPost, "/api/approveApplication", ownerID, map[string]string{
		"listingId": listingID, "applicationId": appID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approval service.ApprovalResult
	decodeBody(t, rec, &approval)
	assert.Equal(t, []string{rival}, approval.RejectedApplicationIDs)

	rec = ts.do(t, http.MethodPost, "/api/confirmReceipt", renterID, map[string]string{"applicationId": appID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var receipt service.ReceiptResult
	decodeBody(t, rec, &receipt)
	assert.Equal(t, "https://pay.test/plink_1", receipt.PaymentLink)

	successURL := fmt.Sprintf("/api/payments/success?listingId=%s&applicationId=%s&token=%s", listingID, appID, ts.lastToken(t))
	rec = ts.do(t, http.MethodGet, successURL, "", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))

	listing, err := ts.store.Listings().GetByID(context.Background(), listingID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusRented, listing.Status)
	assert.False(t, listing.Active)
	app, err := ts.store.Applications().GetByID(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatusPaid, app.Status)

	// Replaying the redirect still lands on the page and changes nothing.
	rec = ts.do(t, http.MethodGet, successURL, "", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/notifications", renterID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notes struct {
		Notifications []entity.Notification `json:"notifications"`
	}
	decodeBody(t, rec, &notes)
	paid := 0
	for _, n := range notes.Notifications {
		if n.Type == entity.NotificationPaymentCompleted {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
}

func TestRouter_PaymentSuccessAlwaysRedirects(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{
		"/api/payments/success",
		"/api/payments/success?listingId=x&applicationId=y&token=z",
	} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
	}
}

func TestRouter_Webhook(t *testing.T) {
	t.Run("bad signature is rejected without touching state", func(t *testing.T) {
		ts := newTestServer(t)
		listingID := ts.createListing(t)
		appID := ts.submit(t, listingID, renterID)
		ts.do(t, http.MethodPost, "/api/approveApplication", ownerID, map[string]string{"listingId": listingID, "applicationId": appID})
		ts.do(t, http.MethodPost, "/api/confirmReceipt", renterID, map[string]string{"applicationId": appID})

		ts.webhooks.On("VerifyWebhook", mock.Anything, "t=1,v1=forged").Return(nil, payment.ErrInvalidSignature)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(`{"type":"checkout.session.completed"}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=forged")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 1, ts.store.TokenCount())
		app, err := ts.store.Applications().GetByID(context.Background(), appID)
		require.NoError(t, err)
		assert.Equal(t, entity.ApplicationStatusConfirmed, app.Status)
	})

	t.Run("verified completion is acknowledged", func(t *testing.T) {
		ts := newTestServer(t)
		listingID := ts.createListing(t)
		appID := ts.submit(t, listingID, renterID)
		ts.do(t, http.MethodPost, "/api/approveApplication", ownerID, map[string]string{"listingId": listingID, "applicationId": appID})
		ts.do(t, http.MethodPost, "/api/confirmReceipt", renterID, map[string]string{"applicationId": appID})

		ts.webhooks.On("VerifyWebhook", mock.Anything, "sig").Return(&payment.CompletionEvent{
			EventID:       "evt_1",
			EventType:     "checkout.session.completed",
			ListingID:     listingID,
			ApplicationID: appID,
			ApplicantUUID: renterID,
			Token:         ts.lastToken(t),
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(`{}`))
		req.Header.Set("Stripe-Signature", "sig")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		app, err := ts.store.Applications().GetByID(context.Background(), appID)
		require.NoError(t, err)
		assert.Equal(t, entity.ApplicationStatusPaid, app.Status)
	})
}

func TestRouter_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t)
	appID := ts.submit(t, listingID, renterID)

	rec := ts.do(t, http.MethodPost, "/api/approveApplication", "", map[string]string{"listingId": listingID, "applicationId": appID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/applications", ownerID, map[string]interface{}{"days_renting": -1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/listings/missing/applications", renterID, map[string]interface{}{"description": "x", "days_renting": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/confirmReceipt", renterID, map[string]string{"applicationId": appID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Contains(t, body.Error, "application is not approved yet")

	rec = ts.do(t, http.MethodPatch, "/api/notifications", renterID, map[string]interface{}{"notificationIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/confirmReceipt", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+signToken(t, renterID))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_CredentialSources(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, renterID)

	withHeader := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	withHeader.Header.Set("Id-Token", token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, withHeader)
	assert.Equal(t, http.StatusOK, rec.Code)

	withCookie := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	withCookie.AddCookie(&http.Cookie{Name: "idToken", Value: token})
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, withCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	forged := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	forged.Header.Set("Authorization", "Bearer "+token+"x")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UploadPhoto(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	ts.photos.On("UploadListingPhoto", mock.Anything, listingID, "drill.png", "image/png", png).
		Return("http://minio.test/listing-photos/listings/"+listingID+"/p.png", nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "drill.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings/"+listingID+"/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, ownerID))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listing, err := ts.store.Listings().GetByID(context.Background(), listingID)
	require.NoError(t, err)
	assert.Len(t, listing.ImageURIs, 1)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("%w: raced", entity.ErrConflict)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("%w: %w", entity.ErrInternal, entity.ErrNotFound)))

	rec := httptest.NewRecorder()
	writeError(rec, logger.NewNop(), fmt.Errorf("%w: mongo: connection refused", entity.ErrInternal))
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

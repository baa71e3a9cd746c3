package http

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/auth"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts every route. m may be nil.
func NewRouter(h *Handler, verifier auth.TokenVerifier, m *metrics.Manager, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(Metrics(m))
	}

	r.Get("/healthz", h.Health)

	// Public: the payment token and the provider signature are the credentials.
	r.Get("/api/payments/success", h.PaymentSuccess)
	r.Post("/api/payments/webhook", h.PaymentWebhook)

	r.Get("/api/listings", h.ListListings)
	r.Get("/api/listings/{listingId}", h.GetListing)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(verifier, log))

		r.Post("/api/listings", h.CreateListing)
		r.Post("/api/listings/{listingId}/photos", h.UploadPhoto)
		r.Get("/api/listings/{listingId}/applications", h.ListApplications)
		r.Post("/api/listings/{listingId}/applications", h.SubmitApplication)

		r.Post("/api/approveApplication", h.ApproveApplication)
		r.Post("/api/confirmReceipt", h.ConfirmReceipt)

		r.Get("/api/users/me", h.Me)
		r.Get("/api/notifications", h.ListNotifications)
		r.Patch("/api/notifications", h.MarkNotificationsRead)
	})

	return r
}

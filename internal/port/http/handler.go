package http

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/service"
)

const (
	defaultMaxUploadBytes = 10 << 20
	maxWebhookBytes       = 1 << 16
	defaultLandingPath    = "/home"
)

type HandlerConfig struct {
	// PaymentLandingPath is where the payment success redirect sends the browser.
	PaymentLandingPath string
	MaxUploadBytes     int64
}

type Handler struct {
	rental        service.RentalService
	listings      service.ListingService
	users         service.UserService
	notifications service.NotificationService
	log           logger.Logger
	cfg           HandlerConfig
}

func NewHandler(
	rental service.RentalService,
	listings service.ListingService,
	users service.UserService,
	notifications service.NotificationService,
	log logger.Logger,
	cfg HandlerConfig,
) *Handler {
	if cfg.PaymentLandingPath == "" {
		cfg.PaymentLandingPath = defaultLandingPath
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		rental:        rental,
		listings:      listings,
		users:         users,
		notifications: notifications,
		log:           log,
		cfg:           cfg,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]string{"status": "ok"})
}

// caller returns the authenticated subject. Authenticate guarantees it on
// protected routes; the check keeps a misrouted handler from running anonymously.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, entity.ErrUnauthenticated)
	}
	return id, ok
}

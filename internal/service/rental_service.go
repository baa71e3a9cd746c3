package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/payment"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("rental-service/service")

// Completion sources.
const (
	SourceRedirect = "redirect"
	SourceWebhook  = "webhook"
)

// Reasons a completion attempt changed nothing.
const (
	NoopIncomplete       = "incomplete_request"
	NoopTokenUnavailable = "token_unavailable"
)

const (
	defaultApprovalLockTTL = 10 * time.Second
	paymentSuccessPath     = "/api/payments/success"

	approvedMessage = "Application approved. Other applicants have been notified."
	receiptMessage  = "Receipt confirmed. Please complete the payment."
)

type SubmitApplicationInput struct {
	Description string
	DaysRenting float64
}

type ApprovalResult struct {
	ApprovedApplicationID  string   `json:"approved_application_id"`
	ListingID              string   `json:"listing_id"`
	RejectedApplicationIDs []string `json:"rejected_application_ids"`
	Message                string   `json:"message"`
}

type ReceiptResult struct {
	ApplicationID string `json:"application_id"`
	ListingID     string `json:"listing_id"`
	PaymentLink   string `json:"payment_link"`
	Message       string `json:"message"`
}

type FinalizeRequest struct {
	ListingID     string
	ApplicationID string
	// ApplicantUUID is empty on the redirect path, where the token's stored
	// applicant is authoritative.
	ApplicantUUID string
	Token         string
	Source        string
}

type FinalizeResult struct {
	Applied bool
	// NoopReason explains why nothing changed when Applied is false.
	NoopReason string
}

type RentalService interface {
	SubmitApplication(ctx context.Context, listingID, callerUUID string, input SubmitApplicationInput) (string, error)
	ApproveApplication(ctx context.Context, listingID, applicationID, callerUUID string) (*ApprovalResult, error)
	ConfirmReceipt(ctx context.Context, applicationID, callerUUID string) (*ReceiptResult, error)
	// FinalizePayment is the single completion transition shared by the
	// redirect and the webhook. Of any number of calls with the same token at
	// most one applies; the rest are no-ops.
	FinalizePayment(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error)
	VerifyWebhook(payload []byte, signature string) (*payment.CompletionEvent, error)
	CompleteFromWebhook(ctx context.Context, event *payment.CompletionEvent) (*FinalizeResult, error)
}

type RentalConfig struct {
	PublicBaseURL   string
	Currency        string
	ApprovalLockTTL time.Duration
}

type RentalServiceDeps struct {
	Listings      repository.ListingRepository
	Applications  repository.ApplicationRepository
	Tokens        repository.SecureTokenRepository
	Transactor    repository.Transactor
	ListingCache  repository.ListingCache // optional
	ListingLock   repository.ListingLock  // optional
	Payments      payment.Provider
	Webhooks      payment.WebhookVerifier
	Notifications NotificationService
	Publisher     nats.MessagePublisher
	Metrics       *metrics.Manager
	Log           logger.Logger
}

type rentalService struct {
	listingRepo  repository.ListingRepository
	appRepo      repository.ApplicationRepository
	tokenRepo    repository.SecureTokenRepository
	tx           repository.Transactor
	cache        repository.ListingCache
	lock         repository.ListingLock
	payments     payment.Provider
	webhooks     payment.WebhookVerifier
	notifier     NotificationService
	msgPublisher nats.MessagePublisher
	metrics      *metrics.Manager
	log          logger.Logger
	cfg          RentalConfig
}

func NewRentalService(deps RentalServiceDeps, cfg RentalConfig) RentalService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.ApprovalLockTTL <= 0 {
		cfg.ApprovalLockTTL = defaultApprovalLockTTL
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &rentalService{
		listingRepo:  deps.Listings,
		appRepo:      deps.Applications,
		tokenRepo:    deps.Tokens,
		tx:           deps.Transactor,
		cache:        deps.ListingCache,
		lock:         deps.ListingLock,
		payments:     deps.Payments,
		webhooks:     deps.Webhooks,
		notifier:     deps.Notifications,
		msgPublisher: deps.Publisher,
		metrics:      deps.Metrics,
		log:          deps.Log,
		cfg:          cfg,
	}
}

func (s *rentalService) SubmitApplication(ctx context.Context, listingID, callerUUID string, input SubmitApplicationInput) (string, error) {
	ctx, span := tracer.Start(ctx, "RentalService.SubmitApplication", trace.WithAttributes(attribute.String("listing.id", listingID)))
	defer span.End()

	s.log.Infof("Submitting application for listing %s by user %s", listingID, callerUUID)

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return "", s.spanError(span, notFoundOr(err, entity.ErrNotFound, "listing "+listingID))
	}
	if listing.IsOwnedBy(callerUUID) {
		s.log.Warnf("User %s attempted to apply to their own listing %s", callerUUID, listingID)
		return "", fmt.Errorf("%w: owners cannot apply to their own listing", entity.ErrAccessDenied)
	}

	app, err := entity.NewApplication(listingID, callerUUID, input.Description, input.DaysRenting)
	if err != nil {
		return "", err
	}
	if !listing.Active || listing.Status != entity.ListingStatusAvailable {
		return "", fmt.Errorf("%w: listing %s is not accepting applications", entity.ErrConflict, listingID)
	}

	appID, err := s.appRepo.Create(ctx, repository.CreateApplicationParams{
		ListingID:   app.ListingID,
		UserUUID:    app.UserUUID,
		Description: app.Description,
		DaysRenting: app.DaysRenting,
	})
	if err != nil {
		s.log.Errorf("Failed to create application for listing %s: %v", listingID, err)
		return "", s.spanError(span, internalError("create application", err))
	}

	outbox := &Outbox{}
	outbox.Add(listing.OwnerUUID, entity.NotificationNewApplication, listingID, appID,
		entity.NotificationContext{ListingTitle: listing.Title})
	s.notifier.Dispatch(ctx, outbox)

	s.publish(ctx, natsSubjectApplicationSubmitted, WorkflowEvent{
		ListingID:     listingID,
		ApplicationID: appID,
		ApplicantUUID: callerUUID,
		OwnerUUID:     listing.OwnerUUID,
		Status:        entity.ApplicationStatusPending,
	})
	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.Inc()
	}

	s.log.Infof("Application %s submitted for listing %s", appID, listingID)
	return appID, nil
}

func (s *rentalService) ApproveApplication(ctx context.Context, listingID, applicationID, callerUUID string) (*ApprovalResult, error) {
	ctx, span := tracer.Start(ctx, "RentalService.ApproveApplication", trace.WithAttributes(
		attribute.String("listing.id", listingID),
		attribute.String("application.id", applicationID),
	))
	defer span.End()

	s.log.Infof("Approving application %s for listing %s by user %s", applicationID, listingID, callerUUID)

	if listingID == "" || applicationID == "" {
		return nil, fmt.Errorf("%w: listingId and applicationId are required", entity.ErrInvalidRequest)
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, s.spanError(span, notFoundOr(err, entity.ErrNotFound, "listing "+listingID))
	}
	if !listing.IsOwnedBy(callerUUID) {
		s.log.Warnf("User %s is not the owner of listing %s", callerUUID, listingID)
		return nil, fmt.Errorf("%w: only the listing owner may approve applications", entity.ErrAccessDenied)
	}

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, s.spanError(span, notFoundOr(err, entity.ErrInvalidRequest, "application "+applicationID))
	}
	if app.ListingID != listingID {
		s.log.Warnf("Application %s belongs to listing %s, not %s", applicationID, app.ListingID, listingID)
		return nil, fmt.Errorf("%w: application does not belong to this listing", entity.ErrInvalidRequest)
	}
	current := app.Status
	if err := app.UpdateStatus(entity.ApplicationStatusApproved); err != nil {
		return nil, fmt.Errorf("%w: application is %s and can no longer be approved", entity.ErrConflict, current)
	}
	if !listing.CanApprove(applicationID) {
		s.log.Warnf("Listing %s is %s for application %s, refusing approval of %s", listingID, listing.Status, listing.HeldApplicationID, applicationID)
		return nil, fmt.Errorf("%w: listing %s is %s", entity.ErrConflict, listingID, listing.Status)
	}

	unlock := func() {}
	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, listingID, s.cfg.ApprovalLockTTL)
		if err != nil {
			if errors.Is(err, repository.ErrLockNotAcquired) {
				return nil, fmt.Errorf("%w: another approval for listing %s is in progress", entity.ErrConflict, listingID)
			}
			return nil, s.spanError(span, internalError("acquire approval lock", err))
		}
		unlock = func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warnf("Failed to release approval lock for listing %s: %v", listingID, err)
			}
		}
	}

	var rejected []entity.Application
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.listingRepo.MarkPending(txCtx, listingID, app.UserUUID, applicationID); err != nil {
			return err
		}
		if err := s.appRepo.UpdateStatus(txCtx, repository.UpdateApplicationStatusParams{
			ApplicationID: applicationID,
			From:          []entity.ApplicationStatus{current},
			To:            entity.ApplicationStatusApproved,
			At:            app.UpdatedAt,
		}); err != nil {
			return err
		}
		var err error
		rejected, err = s.appRepo.RejectOthers(txCtx, listingID, applicationID)
		return err
	})
	// Held only across the write; notification delivery below can be slow.
	unlock()
	if err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			s.log.Warnf("Approval of application %s lost a race on listing %s", applicationID, listingID)
			return nil, fmt.Errorf("%w: listing %s changed while approving", entity.ErrConflict, listingID)
		}
		s.log.Errorf("Failed to approve application %s for listing %s: %v", applicationID, listingID, err)
		return nil, s.spanError(span, internalError("approve application", err))
	}
	s.invalidateListing(ctx, listingID)

	nc := entity.NotificationContext{ListingTitle: listing.Title}
	outbox := &Outbox{}
	outbox.Add(app.UserUUID, entity.NotificationApplicationApproved, listingID, applicationID, nc)
	rejectedIDs := make([]string, 0, len(rejected))
	for _, r := range rejected {
		rejectedIDs = append(rejectedIDs, r.ID)
		outbox.Add(r.UserUUID, entity.NotificationApplicationRejected, listingID, r.ID, nc)
	}
	s.notifier.Dispatch(ctx, outbox)

	s.publish(ctx, natsSubjectApplicationApproved, WorkflowEvent{
		ListingID:              listingID,
		ApplicationID:          applicationID,
		ApplicantUUID:          app.UserUUID,
		OwnerUUID:              listing.OwnerUUID,
		Status:                 entity.ApplicationStatusApproved,
		RejectedApplicationIDs: rejectedIDs,
	})
	if s.metrics != nil {
		s.metrics.ApplicationsApproved.Inc()
		s.metrics.ApplicationsRejected.Add(float64(len(rejected)))
	}

	s.log.Infof("Application %s approved for listing %s, %d competing applications rejected", applicationID, listingID, len(rejected))
	return &ApprovalResult{
		ApprovedApplicationID:  applicationID,
		ListingID:              listingID,
		RejectedApplicationIDs: rejectedIDs,
		Message:                approvedMessage,
	}, nil
}

func (s *rentalService) ConfirmReceipt(ctx context.Context, applicationID, callerUUID string) (*ReceiptResult, error) {
	ctx, span := tracer.Start(ctx, "RentalService.ConfirmReceipt", trace.WithAttributes(attribute.String("application.id", applicationID)))
	defer span.End()

	s.log.Infof("Confirming receipt for application %s by user %s", applicationID, callerUUID)

	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationId is required", entity.ErrInvalidRequest)
	}
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, s.spanError(span, notFoundOr(err, entity.ErrInvalidRequest, "application "+applicationID))
	}
	if app.UserUUID != callerUUID {
		s.log.Warnf("User %s attempted to confirm receipt for application %s of user %s", callerUUID, applicationID, app.UserUUID)
		return nil, fmt.Errorf("%w: only the applicant may confirm receipt", entity.ErrAccessDenied)
	}
	if !app.CanTransitionTo(entity.ApplicationStatusConfirmed) {
		return nil, fmt.Errorf("%w: application is %s", entity.ErrNotApproved, app.Status)
	}

	listing, err := s.listingRepo.GetByID(ctx, app.ListingID)
	if err != nil {
		return nil, s.spanError(span, notFoundOr(err, entity.ErrNotFound, "listing "+app.ListingID))
	}

	token, err := entity.NewSecureToken(callerUUID, listing.ID, app.ID)
	if err != nil {
		return nil, s.spanError(span, err)
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		s.log.Errorf("Failed to store secure token for application %s: %v", applicationID, err)
		return nil, s.spanError(span, internalError("store secure token", err))
	}

	link, err := s.payments.CreatePaymentLink(ctx, payment.LinkRequest{
		ProductName: listing.DisplayTitle(),
		UnitAmount:  listing.Price.Amount,
		Currency:    s.cfg.Currency,
		Quantity:    app.Quantity(),
		SuccessURL:  s.successURL(listing.ID, app.ID, token.ID),
		Metadata: map[string]string{
			payment.MetadataListingID:     listing.ID,
			payment.MetadataApplicationID: app.ID,
			payment.MetadataApplicantUUID: callerUUID,
			payment.MetadataToken:         token.ID,
		},
	})
	if err != nil {
		s.log.Errorf("Failed to create payment link for application %s: %v", applicationID, err)
		s.discardToken(ctx, token.ID)
		return nil, s.spanError(span, internalError("create payment link", err))
	}

	if err := app.UpdateStatus(entity.ApplicationStatusConfirmed); err != nil {
		s.discardToken(ctx, token.ID)
		return nil, fmt.Errorf("%w: %v", entity.ErrNotApproved, err)
	}
	err = s.appRepo.UpdateStatus(ctx, repository.UpdateApplicationStatusParams{
		ApplicationID: applicationID,
		From:          entity.StatusesLeadingTo(entity.ApplicationStatusConfirmed),
		To:            entity.ApplicationStatusConfirmed,
		At:            *app.ConfirmedAt,
	})
	if err != nil {
		s.discardToken(ctx, token.ID)
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, fmt.Errorf("%w: application changed while confirming receipt", entity.ErrNotApproved)
		}
		s.log.Errorf("Failed to mark application %s confirmed: %v", applicationID, err)
		return nil, s.spanError(span, internalError("confirm receipt", err))
	}

	outbox := &Outbox{}
	outbox.Add(listing.OwnerUUID, entity.NotificationReceiptConfirmed, listing.ID, app.ID,
		entity.NotificationContext{ListingTitle: listing.Title})
	s.notifier.Dispatch(ctx, outbox)

	s.publish(ctx, natsSubjectReceiptConfirmed, WorkflowEvent{
		ListingID:     listing.ID,
		ApplicationID: app.ID,
		ApplicantUUID: callerUUID,
		OwnerUUID:     listing.OwnerUUID,
		Status:        entity.ApplicationStatusConfirmed,
	})
	if s.metrics != nil {
		s.metrics.ReceiptsConfirmed.Inc()
	}

	s.log.Infof("Receipt confirmed for application %s, payment link issued", applicationID)
	return &ReceiptResult{
		ApplicationID: app.ID,
		ListingID:     listing.ID,
		PaymentLink:   link,
		Message:       receiptMessage,
	}, nil
}

func (s *rentalService) FinalizePayment(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	ctx, span := tracer.Start(ctx, "RentalService.FinalizePayment", trace.WithAttributes(
		attribute.String("listing.id", req.ListingID),
		attribute.String("application.id", req.ApplicationID),
		attribute.String("completion.source", req.Source),
	))
	defer span.End()

	if req.ListingID == "" || req.ApplicationID == "" || req.Token == "" {
		return s.noop(req, NoopIncomplete), nil
	}

	var (
		claimed *entity.SecureToken
		listing *entity.Listing
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Reset per attempt: the store may retry the whole unit.
		claimed, listing = nil, nil

		token, err := s.tokenRepo.Claim(txCtx, req.Token, entity.TokenMatch{
			ListingID:     req.ListingID,
			ApplicationID: req.ApplicationID,
			ApplicantUUID: req.ApplicantUUID,
		})
		if err != nil {
			return err
		}
		claimed = token

		listing, err = s.applyCompletion(txCtx, req.ListingID, req.ApplicationID, token.ApplicantUUID)
		return err
	})
	if err != nil {
		if claimed == nil && errors.Is(err, repository.ErrNotFound) {
			return s.noop(req, NoopTokenUnavailable), nil
		}
		if claimed != nil && !s.tx.Atomic() {
			s.restoreToken(ctx, claimed)
		}
		s.log.Errorf("Failed to finalize payment for application %s (source %s): %v", req.ApplicationID, req.Source, err)
		if !isDomainError(err) {
			err = internalError("finalize payment", err)
		}
		return nil, s.spanError(span, err)
	}
	s.invalidateListing(ctx, req.ListingID)

	nc := entity.NotificationContext{ListingTitle: listing.Title}
	outbox := &Outbox{}
	outbox.Add(claimed.ApplicantUUID, entity.NotificationPaymentCompleted, req.ListingID, req.ApplicationID, nc)
	nc.ForOwner = true
	outbox.Add(listing.OwnerUUID, entity.NotificationPaymentCompleted, req.ListingID, req.ApplicationID, nc)
	s.notifier.Dispatch(ctx, outbox)

	s.publish(ctx, natsSubjectPaymentCompleted, WorkflowEvent{
		ListingID:     req.ListingID,
		ApplicationID: req.ApplicationID,
		ApplicantUUID: claimed.ApplicantUUID,
		OwnerUUID:     listing.OwnerUUID,
		Status:        entity.ApplicationStatusPaid,
		Source:        req.Source,
	})
	if s.metrics != nil {
		s.metrics.PaymentsFinalized.WithLabelValues(req.Source).Inc()
	}

	s.log.Infof("Payment finalized for application %s on listing %s via %s", req.ApplicationID, req.ListingID, req.Source)
	return &FinalizeResult{Applied: true}, nil
}

// applyCompletion rents the listing to tenant and marks the application paid.
// Both writes are idempotent so a retried completion converges.
func (s *rentalService) applyCompletion(ctx context.Context, listingID, applicationID, tenant string) (*entity.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, notFoundOr(err, entity.ErrNotFound, "listing "+listingID)
	}
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, notFoundOr(err, entity.ErrInvalidRequest, "application "+applicationID)
	}
	if app.ListingID != listingID || app.UserUUID != tenant {
		return nil, fmt.Errorf("%w: completion does not match application %s", entity.ErrInvalidRequest, applicationID)
	}
	if !listing.IsHeldFor(applicationID) || !listing.TenantIs(tenant) {
		return nil, fmt.Errorf("%w: listing %s is not held for application %s", entity.ErrConflict, listingID, applicationID)
	}
	current := app.Status
	if err := app.UpdateStatus(entity.ApplicationStatusPaid); err != nil {
		return nil, fmt.Errorf("%w: application %s is %s", entity.ErrConflict, applicationID, current)
	}

	if err := s.listingRepo.MarkRented(ctx, listingID, tenant); err != nil {
		return nil, internalError("mark listing rented", err)
	}
	err = s.appRepo.UpdateStatus(ctx, repository.UpdateApplicationStatusParams{
		ApplicationID: applicationID,
		From:          []entity.ApplicationStatus{current},
		To:            entity.ApplicationStatusPaid,
		At:            *app.PaidAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, fmt.Errorf("%w: application %s is %s", entity.ErrConflict, applicationID, app.Status)
		}
		return nil, internalError("mark application paid", err)
	}
	return listing, nil
}

func (s *rentalService) VerifyWebhook(payload []byte, signature string) (*payment.CompletionEvent, error) {
	event, err := s.webhooks.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) && s.metrics != nil {
			s.metrics.WebhookSignatureErrors.Inc()
		}
		s.log.Warnf("Rejected payment webhook: %v", err)
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidRequest, err)
	}
	return event, nil
}

func (s *rentalService) CompleteFromWebhook(ctx context.Context, event *payment.CompletionEvent) (*FinalizeResult, error) {
	if event == nil {
		return &FinalizeResult{NoopReason: "ignored_event"}, nil
	}
	if !event.Complete() {
		s.log.Warnf("Payment webhook %s (%s) carries incomplete metadata, ignoring", event.EventID, event.EventType)
		return s.noop(FinalizeRequest{Source: SourceWebhook}, NoopIncomplete), nil
	}
	return s.FinalizePayment(ctx, FinalizeRequest{
		ListingID:     event.ListingID,
		ApplicationID: event.ApplicationID,
		ApplicantUUID: event.ApplicantUUID,
		Token:         event.Token,
		Source:        SourceWebhook,
	})
}

func (s *rentalService) noop(req FinalizeRequest, reason string) *FinalizeResult {
	s.log.Infof("Payment completion via %s for application %s changed nothing: %s", req.Source, req.ApplicationID, reason)
	if s.metrics != nil {
		s.metrics.PaymentFinalizeNoops.WithLabelValues(req.Source, reason).Inc()
	}
	return &FinalizeResult{NoopReason: reason}
}

func (s *rentalService) successURL(listingID, applicationID, token string) string {
	q := url.Values{}
	q.Set("listingId", listingID)
	q.Set("applicationId", applicationID)
	q.Set("token", token)
	return s.cfg.PublicBaseURL + paymentSuccessPath + "?" + q.Encode()
}

func (s *rentalService) discardToken(ctx context.Context, token string) {
	if err := s.tokenRepo.Delete(context.WithoutCancel(ctx), token); err != nil {
		s.log.Errorf("Failed to discard unused secure token: %v", err)
	}
}

// restoreToken puts a claimed token back after a failed, non-transactional
// completion so that the redirect or a webhook retry can complete it later.
func (s *rentalService) restoreToken(ctx context.Context, token *entity.SecureToken) {
	if err := s.tokenRepo.Create(context.WithoutCancel(ctx), token); err != nil {
		s.log.Errorf("Failed to restore secure token for application %s: %v", token.ApplicationID, err)
	}
}

func (s *rentalService) invalidateListing(ctx context.Context, listingID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingID); err != nil {
		s.log.Warnf("Failed to invalidate cached listing %s: %v", listingID, err)
	}
}

func (s *rentalService) publish(ctx context.Context, subject string, event WorkflowEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.msgPublisher.Publish(ctx, subject, event); err != nil {
		s.log.Errorf("Failed to publish %s event for application %s: %v", subject, event.ApplicationID, err)
	}
}

func (s *rentalService) spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

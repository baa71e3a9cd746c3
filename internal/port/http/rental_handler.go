package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/service"
	"github.com/go-chi/chi/v5"
)

const stripeSignatureHeader = "Stripe-Signature"

type submitApplicationRequest struct {
	Description string  `json:"description"`
	DaysRenting float64 `json:"days_renting"`
}

type approveApplicationRequest struct {
	ListingID     string `json:"listingId"`
	ApplicationID string `json:"applicationId"`
}

type confirmReceiptRequest struct {
	ApplicationID string `json:"applicationId"`
}

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req submitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	id, err := h.rental.SubmitApplication(r.Context(), chi.URLParam(r, "listingId"), callerID, service.SubmitApplicationInput{
		Description: req.Description,
		DaysRenting: req.DaysRenting,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req approveApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.rental.ApproveApplication(r.Context(), req.ListingID, req.ApplicationID, callerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, res)
}

func (h *Handler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req confirmReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.rental.ConfirmReceipt(r.Context(), req.ApplicationID, callerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, res)
}

// PaymentSuccess is the browser redirect target of the payment link. It
// always redirects to the landing page; the outcome is only logged.
func (h *Handler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.rental.FinalizePayment(r.Context(), service.FinalizeRequest{
		ListingID:     q.Get("listingId"),
		ApplicationID: q.Get("applicationId"),
		Token:         q.Get("token"),
		Source:        service.SourceRedirect,
	})
	switch {
	case err != nil:
		h.log.Errorf("Payment redirect for application %s failed: %v", q.Get("applicationId"), err)
	case !res.Applied:
		h.log.Infof("Payment redirect for application %s changed nothing (%s)", q.Get("applicationId"), res.NoopReason)
	}
	http.Redirect(w, r, h.cfg.PaymentLandingPath, http.StatusSeeOther)
}

func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, h.log, fmt.Errorf("%w: cannot read webhook body: %v", entity.ErrInvalidRequest, err))
		return
	}

	event, err := h.rental.VerifyWebhook(payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if _, err := h.rental.CompleteFromWebhook(r.Context(), event); err != nil {
		h.log.Errorf("Payment webhook processing failed: %v", err)
		writeJSON(w, h.log, http.StatusInternalServerError, errorResponse{Error: "webhook processing failed"})
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]bool{"received": true})
}
